// Package notify turns appointment status events into patient-facing email
// notifications.
package notify

import (
	"fmt"

	"github.com/gitlakmal/clinic-system/internal/clinic"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

const rejectionSubject = "Appointment Status Update - Clinic System"

// RejectionMessage builds the email for a status change, if one is owed.
// Only transitions into Rejected notify the patient; every other transition
// returns false.
func RejectionMessage(data clinic.AppointmentStatusChangedData) (Message, bool) {
	if clinic.Normalize(data.To) != clinic.StatusRejected {
		return Message{}, false
	}
	if data.PatientEmail == "" {
		return Message{}, false
	}

	greeting := "Dear Patient,"
	if data.PatientName != "" {
		greeting = fmt.Sprintf("Dear %s,", data.PatientName)
	}

	body := fmt.Sprintf(
		"%s\n\nWe regret to inform you that your appointment on %s at %s has been DECLINED by the doctor.\n\nPlease contact the clinic to reschedule.\n\nRegards,\nClinic System",
		greeting, data.Date, data.Time,
	)

	return Message{
		To:      data.PatientEmail,
		Subject: rejectionSubject,
		Body:    body,
	}, true
}
