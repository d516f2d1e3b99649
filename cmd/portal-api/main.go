// Package main provides the portal API service entry point. It fronts the
// clinic REST backend with session handling, slot validation and domain
// event capture.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/handlers"
	"github.com/gitlakmal/clinic-system/internal/api/middleware"
	"github.com/gitlakmal/clinic-system/internal/gateway"
	"github.com/gitlakmal/clinic-system/internal/infrastructure/postgres"
	"github.com/gitlakmal/clinic-system/internal/observability/metrics"
	"github.com/gitlakmal/clinic-system/internal/observability/tracing"
	"github.com/gitlakmal/clinic-system/internal/session"
	"github.com/gitlakmal/clinic-system/pkg/circuitbreaker"
)

// Config holds application configuration.
type Config struct {
	Port          string
	BackendURL    string
	SessionSecret string
	SessionTTL    time.Duration
	// DatabaseURL is optional; without it the service runs with event
	// publication disabled.
	DatabaseURL  string
	OTLPEndpoint string
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := loadConfig()
	if cfg.SessionSecret == "" {
		logger.Fatal("SESSION_SECRET is required")
	}

	ctx := context.Background()

	// Tracing is best-effort; a missing collector only disables export.
	provider, err := tracing.Init(ctx, tracingConfig(cfg))
	if err != nil {
		logger.Warn("tracing init failed, continuing without export", zap.Error(err))
	} else {
		defer provider.Shutdown(context.Background())
	}

	m := metrics.New()

	breakerCfg := circuitbreaker.BackendDefaults()
	breakerCfg.OnStateChange = func(name string, state circuitbreaker.State) {
		m.CircuitBreakerState.WithLabelValues(name).Set(state.GaugeValue())
	}
	breaker, err := circuitbreaker.New(breakerCfg, logger)
	if err != nil {
		logger.Fatal("circuit breaker creation failed", zap.Error(err))
	}

	backend := gateway.New(gateway.Config{
		BaseURL:   cfg.BackendURL,
		Durations: m.BackendDuration,
	}, breaker, logger)

	authority, err := session.NewAuthority([]byte(cfg.SessionSecret), cfg.SessionTTL, logger)
	if err != nil {
		logger.Fatal("session authority creation failed", zap.Error(err))
	}

	var events handlers.EventRecorder
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("database ping failed", zap.Error(err))
		}
		events = postgres.NewEventStore(pool, logger)
		logger.Info("connected to database, event publication enabled")
	} else {
		logger.Warn("DATABASE_URL not set, event publication disabled")
	}

	portal := handlers.NewPortal(backend, authority, events, m, logger)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Tracing("portal-api"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := pool.Ping(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if breaker.IsOpen() {
			http.Error(w, "backend circuit open", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/api/v1", portal.Routes())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("starting portal API",
		zap.String("port", cfg.Port),
		zap.String("backend", cfg.BackendURL),
	)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func loadConfig() Config {
	cfg := Config{
		Port:          envOr("PORT", "8090"),
		BackendURL:    envOr("BACKEND_URL", "http://localhost:8080/api"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    session.DefaultTTL,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		OTLPEndpoint:  envOr("OTLP_ENDPOINT", "localhost:4317"),
	}

	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.SessionTTL = d
		}
	}
	return cfg
}

func tracingConfig(cfg Config) tracing.Config {
	tc := tracing.DefaultConfig("portal-api")
	tc.OTLPEndpoint = cfg.OTLPEndpoint
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		tc.Environment = strings.ToLower(env)
	}
	return tc
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
