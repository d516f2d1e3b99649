package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/middleware"
	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/gateway"
	"github.com/gitlakmal/clinic-system/internal/schedule"
	"github.com/gitlakmal/clinic-system/internal/session"
)

// SlotsResponse lists a doctor's slot occupancy for one day.
type SlotsResponse struct {
	DoctorID  int64       `json:"doctorId"`
	Date      clinic.Date `json:"date"`
	Available []string    `json:"available"`
	Booked    []string    `json:"booked"`
}

// Slots handles GET /doctors/{id}/slots?date=YYYY-MM-DD
func (h *Portal) Slots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	date, err := clinic.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.jsonError(w, "date is required in YYYY-MM-DD form", http.StatusBadRequest)
		return
	}

	// A failed read degrades to an empty list so the caller still sees the
	// full slot universe as available.
	appointments, err := h.backend.ListAppointments(r.Context())
	if err != nil {
		h.logger.Warn("appointment list unavailable, treating all slots as free",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		appointments = nil
	}

	booked := schedule.BookedSlots(doctorID, date, appointments)
	bookedList := make([]string, 0, len(booked))
	for _, slot := range schedule.SlotUniverse() {
		if booked[slot] {
			bookedList = append(bookedList, slot)
		}
	}

	h.jsonOK(w, http.StatusOK, SlotsResponse{
		DoctorID:  doctorID,
		Date:      date,
		Available: schedule.AvailableSlots(doctorID, date, appointments),
		Booked:    bookedList,
	})
}

// BookRequest is the body for booking an appointment.
type BookRequest struct {
	DoctorID int64       `json:"doctorId"`
	Date     clinic.Date `json:"date"`
	Time     string      `json:"time"`
	Notes    string      `json:"notes,omitempty"`
}

// BookAppointment handles POST /appointments
func (h *Portal) BookAppointment(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok || sess.Role != session.RolePatient {
		h.jsonError(w, "patients only", http.StatusForbidden)
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Occupancy is re-checked against a fresh appointment read just before
	// submission; the backend uniqueness check remains the final arbiter.
	appointments, err := h.backend.ListAppointments(r.Context())
	if err != nil {
		h.backendError(w, r, err, "book appointment")
		return
	}

	if err := schedule.ValidateBooking(req.DoctorID, req.Date, req.Time, h.today(), appointments); err != nil {
		if errors.Is(err, schedule.ErrSlotTaken) {
			h.metrics.SlotConflicts.Inc()
			h.jsonError(w, "slot is already booked", http.StatusConflict)
			return
		}
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.backend.CreateAppointment(r.Context(), schedule.NewBooking(sess.ID, req.DoctorID, req.Date, req.Time, req.Notes))
	if err != nil {
		// A concurrent booking can slip past the local check; the backend
		// uniqueness constraint rejects it.
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			h.metrics.SlotConflicts.Inc()
			h.jsonError(w, "slot is already booked", http.StatusConflict)
			return
		}
		h.backendError(w, r, err, "book appointment")
		return
	}

	h.metrics.AppointmentsBooked.Inc()
	if event, err := clinic.NewEvent(clinic.AppointmentBooked, clinic.AppointmentBookedData{
		AppointmentID: created.ID,
		PatientID:     sess.ID,
		DoctorID:      req.DoctorID,
		Date:          created.Date,
		Time:          created.Time,
		Status:        created.Status,
	}); err == nil {
		h.recordEvent(r.Context(), event.WithActors(sess.ID, req.DoctorID), strconv.FormatInt(created.ID, 10))
	}

	h.logger.Info("appointment booked",
		zap.Int64("appointment_id", created.ID),
		zap.Int64("doctor_id", req.DoctorID),
		zap.String("date", string(created.Date)),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.jsonOK(w, http.StatusCreated, created)
}
