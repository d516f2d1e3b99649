// Package handlers provides HTTP handlers for the portal API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/middleware"
	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/gateway"
	"github.com/gitlakmal/clinic-system/internal/infrastructure/redpanda"
	"github.com/gitlakmal/clinic-system/internal/observability/metrics"
	"github.com/gitlakmal/clinic-system/internal/session"
)

// EventRecorder persists domain events for asynchronous delivery. A nil
// recorder disables event publication without affecting request handling.
type EventRecorder interface {
	Record(ctx context.Context, event *clinic.Event, topic, key string) error
}

// Portal handles all portal API endpoints, delegating persistence to the
// clinic backend through the gateway client.
type Portal struct {
	backend  *gateway.Client
	sessions *session.Authority
	events   EventRecorder
	metrics  *metrics.Metrics
	logger   *zap.Logger

	// Clock returns the current time; overridable in tests.
	Clock func() time.Time
}

// NewPortal creates the portal handler. events may be nil when no outbox
// store is configured.
func NewPortal(backend *gateway.Client, sessions *session.Authority, events EventRecorder, m *metrics.Metrics, logger *zap.Logger) *Portal {
	return &Portal{
		backend:  backend,
		sessions: sessions,
		events:   events,
		metrics:  m,
		logger:   logger,
		Clock:    time.Now,
	}
}

// Routes returns the full portal route tree.
func (h *Portal) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/sessions/patient", h.PatientLogin)
	r.Post("/sessions/doctor", h.DoctorLogin)
	r.Post("/sessions/admin", h.AdminLogin)
	r.Post("/register", h.RegisterPatient)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(h.sessions))

		r.Get("/doctors", h.ListDoctors)
		r.Get("/doctors/{id}/slots", h.Slots)
		r.Get("/doctors/{id}/roster", h.GetRoster)
		r.Put("/doctors/{id}/roster", h.SaveRoster)

		r.Post("/appointments", h.BookAppointment)
		r.Get("/appointments", h.ListAppointments)
		r.Put("/appointments/{id}/status", h.UpdateAppointmentStatus)

		r.Get("/medical-records", h.ListMedicalRecords)
		r.Post("/medical-records", h.CreateMedicalRecord)
		r.Put("/medical-records/{id}", h.UpdateMedicalRecord)

		r.Get("/billings", h.ListBillings)
		r.Post("/billings", h.CreateBilling)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(session.RoleAdmin))
			r.Get("/patients", h.ListPatients)
			r.Get("/dashboard/summary", h.DashboardSummary)
			r.Post("/doctors", h.CreateDoctor)
			r.Put("/doctors/{id}", h.UpdateDoctor)
			r.Delete("/doctors/{id}", h.DeleteDoctor)
			r.Delete("/billings/{id}", h.DeleteBilling)
		})
	})

	return r
}

func (h *Portal) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (h *Portal) jsonOK(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// backendError maps a gateway error to an HTTP response.
func (h *Portal) backendError(w http.ResponseWriter, r *http.Request, err error, action string) {
	h.logger.Warn("backend call failed",
		zap.String("action", action),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, gateway.ErrAuth):
		h.jsonError(w, "not authorized", http.StatusUnauthorized)
	case errors.Is(err, gateway.ErrNotFound):
		h.jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, gateway.ErrValidation):
		h.jsonError(w, "invalid request", http.StatusBadRequest)
	case errors.Is(err, gateway.ErrNetwork), errors.Is(err, gateway.ErrServer):
		h.jsonError(w, "clinic backend unavailable", http.StatusBadGateway)
	default:
		h.jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// recordEvent writes a domain event to the outbox. Failures are logged and
// never fail the originating request.
func (h *Portal) recordEvent(ctx context.Context, event *clinic.Event, key string) {
	if h.events == nil {
		return
	}
	topic := redpanda.TopicFor(string(event.EventType))
	if err := h.events.Record(ctx, event, topic, key); err != nil {
		h.logger.Error("event record failed",
			zap.String("event_type", string(event.EventType)),
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err),
		)
	}
}

func (h *Portal) today() clinic.Date {
	return clinic.DateOf(h.Clock())
}
