// Package gateway is the typed HTTP client for the clinic REST backend. It
// normalizes transport and status failures into a small error taxonomy and
// runs every call through a circuit breaker.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/pkg/circuitbreaker"
)

// DurationObserver receives the elapsed seconds of each backend call.
// prometheus histograms satisfy it.
type DurationObserver interface {
	Observe(float64)
}

// Config holds gateway client configuration.
type Config struct {
	// BaseURL is the backend root including the /api base path.
	BaseURL string
	// Timeout bounds each request.
	Timeout time.Duration
	// Durations, when set, records call latency.
	Durations DurationObserver
}

// DefaultConfig returns defaults for a local backend.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080/api",
		Timeout: 10 * time.Second,
	}
}

// Client issues typed requests against the backend.
type Client struct {
	base      string
	http      *http.Client
	breaker   *circuitbreaker.CircuitBreaker
	logger    *zap.Logger
	tracer    trace.Tracer
	durations DurationObserver
}

// New creates a gateway client. breaker may be nil, in which case calls go
// out unguarded.
func New(cfg Config, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		base:      cfg.BaseURL,
		http:      &http.Client{Timeout: cfg.Timeout},
		breaker:   breaker,
		logger:    logger,
		tracer:    otel.Tracer("backend-gateway"),
		durations: cfg.Durations,
	}
}

// do performs one request. body is JSON-encoded when non-nil; the response is
// decoded into out when non-nil and the status is 2xx.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("backend.path", path),
		))
	defer span.End()

	call := func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	}

	start := time.Now()
	defer func() {
		if c.durations != nil {
			c.durations.Observe(time.Since(start).Seconds())
		}
	}()

	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute(ctx, call)
	} else {
		_, err = call()
	}
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("backend call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{Kind: classify(resp.StatusCode), StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(detail))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrServer, err)
	}
	return nil
}

// Credentials is the login payload shared by all three roles.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Doctors ---

func (c *Client) ListDoctors(ctx context.Context) ([]clinic.Doctor, error) {
	var doctors []clinic.Doctor
	if err := c.do(ctx, http.MethodGet, "/doctors", nil, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (c *Client) CreateDoctor(ctx context.Context, d clinic.Doctor) (clinic.Doctor, error) {
	var created clinic.Doctor
	err := c.do(ctx, http.MethodPost, "/doctors", d, &created)
	return created, err
}

func (c *Client) UpdateDoctor(ctx context.Context, id int64, d clinic.Doctor) (clinic.Doctor, error) {
	var updated clinic.Doctor
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/doctors/%d", id), d, &updated)
	return updated, err
}

func (c *Client) DeleteDoctor(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/doctors/%d", id), nil, nil)
}

func (c *Client) DoctorLogin(ctx context.Context, creds Credentials) (clinic.Doctor, error) {
	var doctor clinic.Doctor
	err := c.do(ctx, http.MethodPost, "/doctors/login", creds, &doctor)
	return doctor, err
}

// --- Patients ---

func (c *Client) ListPatients(ctx context.Context) ([]clinic.Patient, error) {
	var patients []clinic.Patient
	if err := c.do(ctx, http.MethodGet, "/patients", nil, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

func (c *Client) RegisterPatient(ctx context.Context, p clinic.Patient) (clinic.Patient, error) {
	var created clinic.Patient
	err := c.do(ctx, http.MethodPost, "/auth/register/patient", p, &created)
	return created, err
}

func (c *Client) CreatePatient(ctx context.Context, p clinic.Patient) (clinic.Patient, error) {
	var created clinic.Patient
	err := c.do(ctx, http.MethodPost, "/patients", p, &created)
	return created, err
}

func (c *Client) UpdatePatient(ctx context.Context, id int64, p clinic.Patient) (clinic.Patient, error) {
	var updated clinic.Patient
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/patients/%d", id), p, &updated)
	return updated, err
}

func (c *Client) DeletePatient(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/patients/%d", id), nil, nil)
}

func (c *Client) PatientLogin(ctx context.Context, creds Credentials) (clinic.Patient, error) {
	var patient clinic.Patient
	err := c.do(ctx, http.MethodPost, "/patients/login", creds, &patient)
	return patient, err
}

// --- Admins ---

func (c *Client) AdminLogin(ctx context.Context, creds Credentials) (clinic.Admin, error) {
	var admin clinic.Admin
	err := c.do(ctx, http.MethodPost, "/admins/login", creds, &admin)
	return admin, err
}

// --- Appointments ---

func (c *Client) ListAppointments(ctx context.Context) ([]clinic.Appointment, error) {
	var appointments []clinic.Appointment
	if err := c.do(ctx, http.MethodGet, "/appointments", nil, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (c *Client) GetAppointment(ctx context.Context, id int64) (clinic.Appointment, error) {
	var appointment clinic.Appointment
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/appointments/%d", id), nil, &appointment)
	return appointment, err
}

func (c *Client) CreateAppointment(ctx context.Context, req clinic.AppointmentRequest) (clinic.Appointment, error) {
	var created clinic.Appointment
	err := c.do(ctx, http.MethodPost, "/appointments", req, &created)
	return created, err
}

func (c *Client) UpdateAppointment(ctx context.Context, id int64, req clinic.AppointmentRequest) (clinic.Appointment, error) {
	var updated clinic.Appointment
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/appointments/%d", id), req, &updated)
	return updated, err
}

// UpdateAppointmentStatus is the single idempotent status transition call,
// keyed by appointment id.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id int64, status string) (clinic.Appointment, error) {
	var updated clinic.Appointment
	path := fmt.Sprintf("/appointments/%d/status?status=%s", id, url.QueryEscape(status))
	err := c.do(ctx, http.MethodPut, path, nil, &updated)
	return updated, err
}

// --- Medical records ---

func (c *Client) ListMedicalRecords(ctx context.Context) ([]clinic.MedicalRecord, error) {
	var records []clinic.MedicalRecord
	if err := c.do(ctx, http.MethodGet, "/medical-records", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) CreateMedicalRecord(ctx context.Context, req clinic.MedicalRecordRequest) (clinic.MedicalRecord, error) {
	var created clinic.MedicalRecord
	err := c.do(ctx, http.MethodPost, "/medical-records", req, &created)
	return created, err
}

func (c *Client) UpdateMedicalRecord(ctx context.Context, id int64, req clinic.MedicalRecordRequest) (clinic.MedicalRecord, error) {
	var updated clinic.MedicalRecord
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/medical-records/%d", id), req, &updated)
	return updated, err
}

// --- Billings ---

func (c *Client) ListBillings(ctx context.Context) ([]clinic.Billing, error) {
	var billings []clinic.Billing
	if err := c.do(ctx, http.MethodGet, "/billings", nil, &billings); err != nil {
		return nil, err
	}
	return billings, nil
}

func (c *Client) CreateBilling(ctx context.Context, req clinic.BillingRequest) (clinic.Billing, error) {
	var created clinic.Billing
	err := c.do(ctx, http.MethodPost, "/billings", req, &created)
	return created, err
}

func (c *Client) UpdateBilling(ctx context.Context, id int64, req clinic.BillingRequest) (clinic.Billing, error) {
	var updated clinic.Billing
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/billings/%d", id), req, &updated)
	return updated, err
}

func (c *Client) DeleteBilling(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/billings/%d", id), nil, nil)
}

// --- Rosters ---

func (c *Client) ListRosters(ctx context.Context) ([]clinic.RosterEntry, error) {
	var entries []clinic.RosterEntry
	if err := c.do(ctx, http.MethodGet, "/rosters", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) RostersByDoctor(ctx context.Context, doctorID int64) ([]clinic.RosterEntry, error) {
	var entries []clinic.RosterEntry
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rosters/doctor/%d", doctorID), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveRoster persists one roster entry. The backend applies create-or-update
// semantics keyed by (doctor, date).
func (c *Client) SaveRoster(ctx context.Context, entry clinic.RosterEntry) error {
	return c.do(ctx, http.MethodPost, "/rosters", entry, nil)
}
