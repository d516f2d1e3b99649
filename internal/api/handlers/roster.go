package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/middleware"
	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/roster"
	"github.com/gitlakmal/clinic-system/internal/session"
)

// RosterResponse is the reconciled 30-day duty window for one doctor.
type RosterResponse struct {
	DoctorID int64        `json:"doctorId"`
	Days     []roster.Day `json:"days"`
}

// GetRoster handles GET /doctors/{id}/roster. The window always starts today
// and holds exactly 30 days; days without a persisted entry come back OFF.
func (h *Portal) GetRoster(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := h.rosterSubject(w, r)
	if !ok {
		return
	}

	persisted, err := h.backend.RostersByDoctor(r.Context(), doctorID)
	if err != nil {
		// Degrade to an all-OFF window rather than failing the page.
		h.logger.Warn("roster read failed, returning empty window",
			zap.Int64("doctor_id", doctorID),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		persisted = nil
	}

	window := roster.Window(h.today())
	h.jsonOK(w, http.StatusOK, RosterResponse{
		DoctorID: doctorID,
		Days:     roster.Reconcile(window, persisted),
	})
}

// RosterSaveRequest carries the edited window back for persistence.
type RosterSaveRequest struct {
	Days []roster.Day `json:"days"`
}

// RosterSaveResponse reports per-date save outcomes.
type RosterSaveResponse struct {
	DoctorID    int64         `json:"doctorId"`
	Saved       int           `json:"saved"`
	FailedDates []clinic.Date `json:"failedDates,omitempty"`
}

// SaveRoster handles PUT /doctors/{id}/roster. Entries persist one by one;
// a partial failure returns 207 with the dates that need retrying.
func (h *Portal) SaveRoster(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := h.rosterSubject(w, r)
	if !ok {
		return
	}

	var req RosterSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Days) == 0 {
		h.jsonError(w, "days are required", http.StatusBadRequest)
		return
	}
	for _, day := range req.Days {
		if !day.Date.Valid() {
			h.jsonError(w, "invalid date in days", http.StatusBadRequest)
			return
		}
	}

	result := roster.SaveWindow(r.Context(), h.backend, doctorID, req.Days)
	h.metrics.RosterSaves.Add(float64(result.Saved))
	h.metrics.RosterSaveFailures.Add(float64(len(result.FailedDates)))

	if event, err := clinic.NewEvent(clinic.RosterSaved, clinic.RosterSavedData{
		DoctorID:    doctorID,
		Saved:       result.Saved,
		FailedDates: result.FailedDates,
	}); err == nil {
		h.recordEvent(r.Context(), event.WithActors(0, doctorID), strconv.FormatInt(doctorID, 10))
	}

	h.logger.Info("roster window saved",
		zap.Int64("doctor_id", doctorID),
		zap.Int("saved", result.Saved),
		zap.Int("failed", len(result.FailedDates)),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)

	code := http.StatusOK
	if result.Failed() {
		code = http.StatusMultiStatus
	}
	h.jsonOK(w, code, RosterSaveResponse{
		DoctorID:    doctorID,
		Saved:       result.Saved,
		FailedDates: result.FailedDates,
	})
}

// rosterSubject resolves and authorizes the doctor id in the path: doctors
// may only touch their own roster, admins any.
func (h *Portal) rosterSubject(w http.ResponseWriter, r *http.Request) (int64, bool) {
	doctorID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid doctor id", http.StatusBadRequest)
		return 0, false
	}

	sess, _ := middleware.GetSession(r.Context())
	switch sess.Role {
	case session.RoleAdmin:
		return doctorID, true
	case session.RoleDoctor:
		if sess.ID != doctorID {
			h.jsonError(w, "not your roster", http.StatusForbidden)
			return 0, false
		}
		return doctorID, true
	default:
		h.jsonError(w, "doctors only", http.StatusForbidden)
		return 0, false
	}
}
