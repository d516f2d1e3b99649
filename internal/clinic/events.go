package clinic

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a portal domain event.
type EventType string

const (
	AppointmentBooked        EventType = "AppointmentBooked"
	AppointmentStatusChanged EventType = "AppointmentStatusChanged"
	WalkInCreated            EventType = "WalkInCreated"
	BillCreated              EventType = "BillCreated"
	RosterSaved              EventType = "RosterSaved"
)

// Event is a domain event recorded after a successful backend mutation and
// relayed to the broker through the outbox.
type Event struct {
	ID            string          `json:"id"`
	EventType     EventType       `json:"event_type"`
	EventData     json.RawMessage `json:"event_data"`
	Timestamp     time.Time       `json:"timestamp"`
	PatientID     int64           `json:"patient_id,omitempty"`
	DoctorID      int64           `json:"doctor_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// NewEvent marshals data and wraps it in an event envelope.
func NewEvent(eventType EventType, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New().String(),
		EventType: eventType,
		EventData: payload,
		Timestamp: time.Now().UTC(),
	}, nil
}

// WithActors attaches the patient and doctor the event concerns.
func (e *Event) WithActors(patientID, doctorID int64) *Event {
	e.PatientID = patientID
	e.DoctorID = doctorID
	return e
}

// AppointmentBookedData describes a patient booking.
type AppointmentBookedData struct {
	AppointmentID int64  `json:"appointment_id"`
	PatientID     int64  `json:"patient_id"`
	DoctorID      int64  `json:"doctor_id"`
	Date          Date   `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
}

// AppointmentStatusChangedData describes a doctor-driven status transition.
// Patient contact details ride along so the notification service does not
// need a backend round trip.
type AppointmentStatusChangedData struct {
	AppointmentID int64  `json:"appointment_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	Date          Date   `json:"date"`
	Time          string `json:"time"`
	PatientName   string `json:"patient_name,omitempty"`
	PatientEmail  string `json:"patient_email,omitempty"`
}

// WalkInCreatedData describes a synthesized walk-in appointment.
type WalkInCreatedData struct {
	AppointmentID int64  `json:"appointment_id"`
	PatientID     int64  `json:"patient_id"`
	DoctorID      int64  `json:"doctor_id"`
	Date          Date   `json:"date"`
	Reason        string `json:"reason"`
}

// BillCreatedData describes a submitted bill and its resolved appointment.
type BillCreatedData struct {
	BillID        int64   `json:"bill_id"`
	AppointmentID int64   `json:"appointment_id"`
	PatientID     int64   `json:"patient_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

// RosterSavedData describes the outcome of a roster window save, including
// any dates that failed to persist.
type RosterSavedData struct {
	DoctorID    int64  `json:"doctor_id"`
	Saved       int    `json:"saved"`
	FailedDates []Date `json:"failed_dates,omitempty"`
}
