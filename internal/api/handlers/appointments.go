package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/middleware"
	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/session"
)

// AppointmentView is an appointment decorated with its display status, which
// rewrites past approved appointments to COMPLETED without mutating the row.
type AppointmentView struct {
	clinic.Appointment
	DisplayStatus string `json:"displayStatus"`
}

// ListAppointments handles GET /appointments, scoped to the caller's role:
// patients and doctors see their own rows, admins see everything.
func (h *Portal) ListAppointments(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	appointments, err := h.backend.ListAppointments(r.Context())
	if err != nil {
		h.backendError(w, r, err, "list appointments")
		return
	}

	today := h.today()
	views := make([]AppointmentView, 0, len(appointments))
	for _, a := range appointments {
		if !visibleTo(sess, a) {
			continue
		}
		views = append(views, AppointmentView{
			Appointment:   a,
			DisplayStatus: clinic.DisplayStatus(a, today),
		})
	}

	h.jsonOK(w, http.StatusOK, views)
}

func visibleTo(sess session.Session, a clinic.Appointment) bool {
	switch sess.Role {
	case session.RoleAdmin:
		return true
	case session.RoleDoctor:
		return a.Doctor != nil && a.Doctor.ID == sess.ID
	case session.RolePatient:
		return a.Patient != nil && a.Patient.ID == sess.ID
	default:
		return false
	}
}

// StatusUpdateRequest is the body for an appointment status transition.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateAppointmentStatus handles PUT /appointments/{id}/status. Only the
// owning doctor or an admin may move the status, and only along legal
// transitions.
func (h *Portal) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	if sess.Role != session.RoleDoctor && sess.Role != session.RoleAdmin {
		h.jsonError(w, "doctors only", http.StatusForbidden)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	current, err := h.backend.GetAppointment(r.Context(), id)
	if err != nil {
		h.backendError(w, r, err, "load appointment")
		return
	}
	if sess.Role == session.RoleDoctor && (current.Doctor == nil || current.Doctor.ID != sess.ID) {
		h.jsonError(w, "not your appointment", http.StatusForbidden)
		return
	}

	to, err := clinic.ValidateTransition(current.Status, req.Status)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusConflict)
		return
	}

	updated, err := h.backend.UpdateAppointmentStatus(r.Context(), id, string(to))
	if err != nil {
		h.backendError(w, r, err, "update appointment status")
		return
	}

	h.metrics.StatusTransitions.WithLabelValues(string(to)).Inc()

	data := clinic.AppointmentStatusChangedData{
		AppointmentID: id,
		From:          current.Status,
		To:            string(to),
		Date:          current.Date,
		Time:          current.Time,
	}
	if current.Patient != nil {
		data.PatientName = current.Patient.FullName()
		data.PatientEmail = current.Patient.Email
	}
	if event, eventErr := clinic.NewEvent(clinic.AppointmentStatusChanged, data); eventErr == nil {
		h.recordEvent(r.Context(), event, strconv.FormatInt(id, 10))
	}

	h.logger.Info("appointment status updated",
		zap.Int64("appointment_id", id),
		zap.String("from", current.Status),
		zap.String("to", string(to)),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.jsonOK(w, http.StatusOK, AppointmentView{
		Appointment:   updated,
		DisplayStatus: clinic.DisplayStatus(updated, h.today()),
	})
}
