package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/middleware"
	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/schedule"
	"github.com/gitlakmal/clinic-system/internal/session"
)

// RecordCreateRequest is the body for creating a medical record.
type RecordCreateRequest struct {
	PatientID int64  `json:"patientId"`
	Diagnosis string `json:"diagnosis"`
	Treatment string `json:"treatment"`
	Notes     string `json:"notes,omitempty"`
}

// RecordCreateResponse is the saved record plus the walk-in appointment
// synthesized alongside it, if any.
type RecordCreateResponse struct {
	Record              clinic.MedicalRecord `json:"record"`
	WalkInAppointmentID int64                `json:"walkInAppointmentId,omitempty"`
}

// CreateMedicalRecord handles POST /medical-records. Doctors only. A walk-in
// consultation appointment is synthesized alongside the record so the visit
// exists for later billing; failure to synthesize never blocks the record.
func (h *Portal) CreateMedicalRecord(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	if sess.Role != session.RoleDoctor {
		h.jsonError(w, "doctors only", http.StatusForbidden)
		return
	}

	var req RecordCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientID == 0 || req.Diagnosis == "" || req.Treatment == "" {
		h.jsonError(w, "patientId, diagnosis and treatment are required", http.StatusBadRequest)
		return
	}

	record, err := h.backend.CreateMedicalRecord(r.Context(), clinic.MedicalRecordRequest{
		PatientID:  strconv.FormatInt(req.PatientID, 10),
		DoctorID:   strconv.FormatInt(sess.ID, 10),
		Diagnosis:  req.Diagnosis,
		Treatment:  req.Treatment,
		Notes:      req.Notes,
		RecordDate: h.today(),
	})
	if err != nil {
		h.backendError(w, r, err, "create medical record")
		return
	}

	resp := RecordCreateResponse{Record: record}

	now := h.Clock()
	walkIn, err := h.backend.CreateAppointment(r.Context(), schedule.SynthesizeWalkIn(req.PatientID, sess.ID, now, schedule.WalkInConsultationNote))
	if err != nil {
		h.logger.Warn("walk-in synthesis failed for record",
			zap.Int64("record_id", record.ID),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
	} else {
		resp.WalkInAppointmentID = walkIn.ID
		h.metrics.WalkInsCreated.Inc()
		if event, eventErr := clinic.NewEvent(clinic.WalkInCreated, clinic.WalkInCreatedData{
			AppointmentID: walkIn.ID,
			PatientID:     req.PatientID,
			DoctorID:      sess.ID,
			Date:          clinic.DateOf(now),
			Reason:        schedule.WalkInConsultationNote,
		}); eventErr == nil {
			h.recordEvent(r.Context(), event.WithActors(req.PatientID, sess.ID), strconv.FormatInt(walkIn.ID, 10))
		}
	}

	h.logger.Info("medical record created",
		zap.Int64("record_id", record.ID),
		zap.Int64("patient_id", req.PatientID),
		zap.Int64("walk_in_id", resp.WalkInAppointmentID),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.jsonOK(w, http.StatusCreated, resp)
}

// UpdateMedicalRecord handles PUT /medical-records/{id}. Doctors only; the
// record date is preserved, not restamped.
func (h *Portal) UpdateMedicalRecord(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	if sess.Role != session.RoleDoctor {
		h.jsonError(w, "doctors only", http.StatusForbidden)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid record id", http.StatusBadRequest)
		return
	}

	var req clinic.MedicalRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.backend.UpdateMedicalRecord(r.Context(), id, req)
	if err != nil {
		h.backendError(w, r, err, "update medical record")
		return
	}
	h.jsonOK(w, http.StatusOK, updated)
}

// ListMedicalRecords handles GET /medical-records, scoped by role: patients
// see their own records, doctors and admins see all.
func (h *Portal) ListMedicalRecords(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	records, err := h.backend.ListMedicalRecords(r.Context())
	if err != nil {
		h.backendError(w, r, err, "list medical records")
		return
	}

	if sess.Role == session.RolePatient {
		own := make([]clinic.MedicalRecord, 0)
		for _, rec := range records {
			if rec.Patient != nil && rec.Patient.ID == sess.ID {
				own = append(own, rec)
			}
		}
		records = own
	}

	h.jsonOK(w, http.StatusOK, records)
}
