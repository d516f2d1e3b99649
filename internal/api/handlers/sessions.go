package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/middleware"
	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/gateway"
	"github.com/gitlakmal/clinic-system/internal/session"
)

// LoginRequest is the body for all three login endpoints.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the resolved identity.
type LoginResponse struct {
	Token       string       `json:"token"`
	Role        session.Role `json:"role"`
	ID          int64        `json:"id"`
	DisplayName string       `json:"displayName"`
}

const invalidCredentials = "Invalid Email or Password"

// PatientLogin handles POST /sessions/patient
func (h *Portal) PatientLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.backend.PatientLogin(r.Context(), gateway.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, gateway.ErrAuth) || errors.Is(err, gateway.ErrNotFound) {
			h.jsonError(w, invalidCredentials, http.StatusUnauthorized)
			return
		}
		h.backendError(w, r, err, "patient login")
		return
	}

	h.issueSession(w, r, session.Session{
		Role:        session.RolePatient,
		ID:          patient.ID,
		DisplayName: session.DisplayName(patient.FullName(), patient.Email),
	})
}

// DoctorLogin handles POST /sessions/doctor
func (h *Portal) DoctorLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doctor, err := h.backend.DoctorLogin(r.Context(), gateway.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, gateway.ErrAuth) || errors.Is(err, gateway.ErrNotFound) {
			h.jsonError(w, invalidCredentials, http.StatusUnauthorized)
			return
		}
		h.backendError(w, r, err, "doctor login")
		return
	}

	h.issueSession(w, r, session.Session{
		Role:        session.RoleDoctor,
		ID:          doctor.ID,
		DisplayName: session.DisplayName(doctor.Name, doctor.Email),
	})
}

// AdminLogin handles POST /sessions/admin
func (h *Portal) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	admin, err := h.backend.AdminLogin(r.Context(), gateway.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, gateway.ErrAuth) || errors.Is(err, gateway.ErrNotFound) {
			h.jsonError(w, invalidCredentials, http.StatusUnauthorized)
			return
		}
		h.backendError(w, r, err, "admin login")
		return
	}

	h.issueSession(w, r, session.Session{
		Role:        session.RoleAdmin,
		ID:          admin.ID,
		DisplayName: session.DisplayName(admin.Name, admin.Email),
	})
}

func (h *Portal) issueSession(w http.ResponseWriter, r *http.Request, s session.Session) {
	token, err := h.sessions.Issue(s)
	if err != nil {
		h.logger.Error("token issue failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("session issued",
		zap.String("role", string(s.Role)),
		zap.Int64("subject_id", s.ID),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)

	h.jsonOK(w, http.StatusOK, LoginResponse{
		Token:       token,
		Role:        s.Role,
		ID:          s.ID,
		DisplayName: s.DisplayName,
	})
}

// RegisterPatient handles POST /register
func (h *Portal) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var patient clinic.Patient
	if err := json.NewDecoder(r.Body).Decode(&patient); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if patient.Email == "" || patient.Password == "" {
		h.jsonError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	created, err := h.backend.RegisterPatient(r.Context(), patient)
	if err != nil {
		h.backendError(w, r, err, "patient registration")
		return
	}

	h.logger.Info("patient registered",
		zap.Int64("patient_id", created.ID),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.jsonOK(w, http.StatusCreated, created)
}
