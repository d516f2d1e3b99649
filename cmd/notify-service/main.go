// Package main provides the notification service entry point. It consumes
// appointment status events and emails patients whose appointments were
// rejected, exactly once per event.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/infrastructure/redpanda"
	"github.com/gitlakmal/clinic-system/internal/notify"
	"github.com/gitlakmal/clinic-system/internal/observability/metrics"
	"github.com/gitlakmal/clinic-system/pkg/circuitbreaker"
	"github.com/gitlakmal/clinic-system/pkg/idempotency"
	"github.com/gitlakmal/clinic-system/pkg/workerpool"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	brokers := []string{"localhost:9092"}
	if b := os.Getenv("KAFKA_BROKERS"); b != "" {
		brokers = strings.Split(b, ",")
	}

	smtpCfg := notify.SMTPConfig{
		Addr:     envOr("SMTP_ADDR", "localhost:1025"),
		From:     envOr("SMTP_FROM", "no-reply@clinic.local"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}

	ctx := context.Background()
	m := metrics.New()

	// The inbox is optional: without a database the service degrades to
	// at-least-once delivery.
	var inbox *idempotency.Inbox
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()

		inbox = idempotency.NewInbox(pool, idempotency.DefaultInboxConfig(), logger)
		if recovered, err := inbox.RecoverStaleEntries(ctx); err != nil {
			logger.Warn("stale entry recovery failed", zap.Error(err))
		} else if recovered > 0 {
			logger.Info("recovered stale inbox entries", zap.Int64("count", recovered))
		}
		inbox.StartCleanup()
		defer inbox.Stop()
	} else {
		logger.Warn("DATABASE_URL not set, duplicate suppression disabled")
	}

	breakerCfg := circuitbreaker.MailerDefaults()
	breakerCfg.OnStateChange = func(name string, state circuitbreaker.State) {
		m.CircuitBreakerState.WithLabelValues(name).Set(state.GaugeValue())
	}
	breaker, err := circuitbreaker.New(breakerCfg, logger)
	if err != nil {
		logger.Fatal("circuit breaker creation failed", zap.Error(err))
	}
	mailer := notify.NewSMTPMailer(smtpCfg, breaker, logger)

	var handler *notify.Handler

	poolCfg := workerpool.DefaultConfig()
	pool, err := workerpool.New(poolCfg, func(ctx context.Context, task *workerpool.Task) *workerpool.Result {
		return handler.Deliver(ctx, task)
	}, logger)
	if err != nil {
		logger.Fatal("worker pool creation failed", zap.Error(err))
	}

	handler = notify.NewHandler(pool, inbox, mailer, m, logger)
	pool.Start()
	defer pool.Stop()

	consumerCfg := redpanda.DefaultConsumerConfig()
	consumerCfg.Brokers = brokers
	consumerCfg.GroupID = "notify-service"
	consumerCfg.Topics = []string{redpanda.TopicAppointmentNotifications}

	consumer, err := redpanda.NewConsumer(consumerCfg, handler.HandleMessage, logger)
	if err != nil {
		logger.Fatal("consumer creation failed", zap.Error(err))
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(":"+envOr("METRICS_PORT", "9092"), mux); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	consumer.Start()
	logger.Info("notify service started",
		zap.Strings("brokers", brokers),
		zap.String("smtp", smtpCfg.Addr),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	consumer.Stop()
	logger.Info("notify service stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
