// Package metrics provides Prometheus metrics for the clinic portal.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	AppointmentsBooked  prometheus.Counter
	SlotConflicts       prometheus.Counter
	StatusTransitions   *prometheus.CounterVec
	WalkInsCreated      prometheus.Counter
	BillsCreated        prometheus.Counter
	RosterSaves         prometheus.Counter
	RosterSaveFailures  prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	BackendDuration     prometheus.Histogram
	OutboxPending       prometheus.Gauge
	CircuitBreakerState *prometheus.GaugeVec
}

// New creates all metrics and registers them on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics on the given registerer.
func NewWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AppointmentsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_booked_total",
			Help: "Total appointments booked through the portal",
		}),
		SlotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slot_conflicts_total",
			Help: "Booking attempts rejected because the slot was taken",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_status_transitions_total",
			Help: "Appointment status transitions by target status",
		}, []string{"to"}),
		WalkInsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walkin_appointments_created_total",
			Help: "Walk-in appointments synthesized for records and bills",
		}),
		BillsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bills_created_total",
			Help: "Total bills submitted",
		}),
		RosterSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roster_entries_saved_total",
			Help: "Roster entries persisted",
		}),
		RosterSaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roster_entries_failed_total",
			Help: "Roster entries that failed to persist",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Patient notifications dispatched",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Patient notifications that failed to send",
		}),
		BackendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Clinic backend request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Pending outbox entries",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	reg.MustRegister(
		m.AppointmentsBooked,
		m.SlotConflicts,
		m.StatusTransitions,
		m.WalkInsCreated,
		m.BillsCreated,
		m.RosterSaves,
		m.RosterSaveFailures,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.BackendDuration,
		m.OutboxPending,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
