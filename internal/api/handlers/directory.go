package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/middleware"
	"github.com/gitlakmal/clinic-system/internal/clinic"
)

// ListDoctors handles GET /doctors. Any authenticated role may browse the
// doctor directory; password fields never survive the round trip.
func (h *Portal) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.backend.ListDoctors(r.Context())
	if err != nil {
		h.backendError(w, r, err, "list doctors")
		return
	}
	for i := range doctors {
		doctors[i].Password = ""
	}
	h.jsonOK(w, http.StatusOK, doctors)
}

// CreateDoctor handles POST /doctors (admin only, routed).
func (h *Portal) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var doctor clinic.Doctor
	if err := json.NewDecoder(r.Body).Decode(&doctor); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if doctor.Name == "" || doctor.Email == "" || doctor.Password == "" {
		h.jsonError(w, "name, email and password are required", http.StatusBadRequest)
		return
	}

	created, err := h.backend.CreateDoctor(r.Context(), doctor)
	if err != nil {
		h.backendError(w, r, err, "create doctor")
		return
	}
	created.Password = ""

	h.logger.Info("doctor created",
		zap.Int64("doctor_id", created.ID),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.jsonOK(w, http.StatusCreated, created)
}

// UpdateDoctor handles PUT /doctors/{id} (admin only, routed).
func (h *Portal) UpdateDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid doctor id", http.StatusBadRequest)
		return
	}

	var doctor clinic.Doctor
	if err := json.NewDecoder(r.Body).Decode(&doctor); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.backend.UpdateDoctor(r.Context(), id, doctor)
	if err != nil {
		h.backendError(w, r, err, "update doctor")
		return
	}
	updated.Password = ""
	h.jsonOK(w, http.StatusOK, updated)
}

// DeleteDoctor handles DELETE /doctors/{id} (admin only, routed).
func (h *Portal) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	if err := h.backend.DeleteDoctor(r.Context(), id); err != nil {
		h.backendError(w, r, err, "delete doctor")
		return
	}

	h.logger.Info("doctor deleted",
		zap.Int64("doctor_id", id),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
	w.WriteHeader(http.StatusNoContent)
}

// ListPatients handles GET /patients (admin only, routed).
func (h *Portal) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.backend.ListPatients(r.Context())
	if err != nil {
		h.backendError(w, r, err, "list patients")
		return
	}
	for i := range patients {
		patients[i].Password = ""
	}
	h.jsonOK(w, http.StatusOK, patients)
}
