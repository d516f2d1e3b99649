package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/middleware"
	"github.com/gitlakmal/clinic-system/internal/billing"
	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/session"
)

// BillingCreateRequest is the body for submitting a bill. AppointmentID is
// optional; when absent the link is resolved against today's appointments or
// a synthesized walk-in.
type BillingCreateRequest struct {
	PatientID     int64   `json:"patientId"`
	AppointmentID int64   `json:"appointmentId,omitempty"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`
}

// BillingCreateResponse is the created bill plus how its appointment link
// was resolved.
type BillingCreateResponse struct {
	Bill          clinic.Billing `json:"bill"`
	AppointmentID int64          `json:"appointmentId,omitempty"`
	WalkInCreated bool           `json:"walkInCreated"`
	// Notice is set when walk-in synthesis failed and the bill was submitted
	// without an appointment link.
	Notice string `json:"notice,omitempty"`
}

// CreateBilling handles POST /billings. Doctors only; the session identifies
// the billing doctor for walk-in synthesis.
func (h *Portal) CreateBilling(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	if sess.Role != session.RoleDoctor {
		h.jsonError(w, "doctors only", http.StatusForbidden)
		return
	}

	var req BillingCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientID == 0 || req.Amount <= 0 || req.PaymentMethod == "" {
		h.jsonError(w, "patientId, amount and paymentMethod are required", http.StatusBadRequest)
		return
	}

	appointments, err := h.backend.ListAppointments(r.Context())
	if err != nil {
		h.logger.Warn("appointment read failed during billing, resolution degrades to walk-in",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		appointments = nil
	}

	resolution, resolveErr := billing.ResolveAppointmentID(
		r.Context(), req.PatientID, sess.ID, req.AppointmentID,
		appointments, h.Clock(), h.backend,
	)

	wire := clinic.BillingRequest{
		PatientID:     strconv.FormatInt(req.PatientID, 10),
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
	}
	if resolution.Linked {
		wire.AppointmentID = strconv.FormatInt(resolution.AppointmentID, 10)
	}

	bill, err := h.backend.CreateBilling(r.Context(), wire)
	if err != nil {
		h.backendError(w, r, err, "create billing")
		return
	}

	h.metrics.BillsCreated.Inc()
	if resolution.Created {
		h.metrics.WalkInsCreated.Inc()
	}

	if event, eventErr := clinic.NewEvent(clinic.BillCreated, clinic.BillCreatedData{
		BillID:        bill.BillID,
		AppointmentID: resolution.AppointmentID,
		PatientID:     req.PatientID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	}); eventErr == nil {
		h.recordEvent(r.Context(), event.WithActors(req.PatientID, sess.ID), strconv.FormatInt(bill.BillID, 10))
	}

	resp := BillingCreateResponse{
		Bill:          bill,
		AppointmentID: resolution.AppointmentID,
		WalkInCreated: resolution.Created,
	}
	if resolveErr != nil {
		resp.Notice = "bill saved without an appointment link: " + resolveErr.Error()
		h.logger.Warn("walk-in synthesis failed",
			zap.Int64("patient_id", req.PatientID),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(resolveErr),
		)
	}

	h.logger.Info("bill created",
		zap.Int64("bill_id", bill.BillID),
		zap.Int64("appointment_id", resolution.AppointmentID),
		zap.Bool("walk_in", resolution.Created),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.jsonOK(w, http.StatusCreated, resp)
}

// ListBillings handles GET /billings. Doctors and admins see all bills;
// patients see bills linked to their own appointments.
func (h *Portal) ListBillings(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	bills, err := h.backend.ListBillings(r.Context())
	if err != nil {
		h.backendError(w, r, err, "list billings")
		return
	}

	if sess.Role == session.RolePatient {
		own := make([]clinic.Billing, 0)
		for _, b := range bills {
			if b.Appointment != nil && b.Appointment.Patient != nil && b.Appointment.Patient.ID == sess.ID {
				own = append(own, b)
			}
		}
		bills = own
	}

	h.jsonOK(w, http.StatusOK, bills)
}

// DeleteBilling handles DELETE /billings/{id} (admin only, routed).
func (h *Portal) DeleteBilling(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid bill id", http.StatusBadRequest)
		return
	}
	if err := h.backend.DeleteBilling(r.Context(), id); err != nil {
		h.backendError(w, r, err, "delete billing")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
