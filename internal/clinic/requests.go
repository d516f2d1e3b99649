package clinic

import "strconv"

// AppointmentRequest is the wire payload for creating an appointment. The
// backend expects entity ids as strings and a combined appointmentTime stamp
// alongside the separate date and time fields.
type AppointmentRequest struct {
	PatientID       string `json:"patientId"`
	DoctorID        string `json:"doctorId"`
	Date            Date   `json:"date"`
	Time            string `json:"time"`
	AppointmentTime string `json:"appointmentTime"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status"`
}

// NewAppointmentRequest assembles the wire payload for (doctor, date, slot).
// slot is HH:MM; the backend stores HH:MM:SS.
func NewAppointmentRequest(patientID, doctorID int64, date Date, slot, notes, status string) AppointmentRequest {
	return AppointmentRequest{
		PatientID:       strconv.FormatInt(patientID, 10),
		DoctorID:        strconv.FormatInt(doctorID, 10),
		Date:            date,
		Time:            slot + ":00",
		AppointmentTime: string(date) + "T" + slot + ":00",
		Notes:           notes,
		Status:          status,
	}
}

// MedicalRecordRequest is the wire payload for creating or updating a
// medical record.
type MedicalRecordRequest struct {
	PatientID  string `json:"patientId"`
	DoctorID   string `json:"doctorId"`
	Diagnosis  string `json:"diagnosis"`
	Treatment  string `json:"treatment"`
	Notes      string `json:"notes,omitempty"`
	RecordDate Date   `json:"recordDate"`
}

// BillingRequest is the wire payload for creating a bill. The payment date
// is stamped server-side and therefore absent here.
type BillingRequest struct {
	PatientID     string  `json:"patientId"`
	AppointmentID string  `json:"appointmentId,omitempty"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`
}
