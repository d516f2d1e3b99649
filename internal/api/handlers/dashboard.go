package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/middleware"
	"github.com/gitlakmal/clinic-system/internal/stats"
)

// DashboardSummary is the admin landing-page aggregate. Each section is
// computed independently; a failed read empties that section only.
type DashboardSummaryResponse struct {
	Doctors           int            `json:"doctors"`
	Patients          int            `json:"patients"`
	Appointments      int            `json:"appointments"`
	Specializations   []stats.Bucket `json:"specializations"`
	AppointmentStatus []stats.Bucket `json:"appointmentStatus"`
	PatientGrowth     []stats.Bucket `json:"patientGrowth"`
}

// DashboardSummary handles GET /dashboard/summary
func (h *Portal) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	doctors, err := h.backend.ListDoctors(ctx)
	if err != nil {
		h.logger.Warn("dashboard doctor read failed", zap.String("request_id", requestID), zap.Error(err))
		doctors = nil
	}
	patients, err := h.backend.ListPatients(ctx)
	if err != nil {
		h.logger.Warn("dashboard patient read failed", zap.String("request_id", requestID), zap.Error(err))
		patients = nil
	}
	appointments, err := h.backend.ListAppointments(ctx)
	if err != nil {
		h.logger.Warn("dashboard appointment read failed", zap.String("request_id", requestID), zap.Error(err))
		appointments = nil
	}

	h.jsonOK(w, http.StatusOK, DashboardSummaryResponse{
		Doctors:           len(doctors),
		Patients:          len(patients),
		Appointments:      len(appointments),
		Specializations:   stats.SpecializationDistribution(doctors),
		AppointmentStatus: stats.StatusBuckets(appointments),
		PatientGrowth:     stats.PatientGrowth(patients, h.Clock()),
	})
}
