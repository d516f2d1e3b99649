// Package billing implements billing reconciliation: resolving the
// appointment a bill must link to, synthesizing a walk-in when none exists.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/schedule"
)

// AppointmentCreator creates an appointment at the backend and returns the
// stored row. The gateway client implements it.
type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, req clinic.AppointmentRequest) (clinic.Appointment, error)
}

// Resolution is the outcome of appointment resolution for a bill.
type Resolution struct {
	AppointmentID int64
	// Created reports that a walk-in was synthesized for the link.
	Created bool
	// Linked is false only when synthesis itself failed; the bill is then
	// submitted without an appointment link and the caller surfaces a
	// non-fatal notice.
	Linked bool
}

// ResolveAppointmentID resolves the appointment a bill links to, strictly in
// this order: the explicit id when supplied; an active appointment for the
// patient dated today; a freshly synthesized walk-in. The returned error is
// non-fatal and only ever reports a failed synthesis.
func ResolveAppointmentID(
	ctx context.Context,
	patientID, doctorID, explicitID int64,
	appointments []clinic.Appointment,
	now time.Time,
	creator AppointmentCreator,
) (Resolution, error) {
	if explicitID != 0 {
		return Resolution{AppointmentID: explicitID, Linked: true}, nil
	}

	if found, ok := findToday(patientID, appointments, clinic.DateOf(now)); ok {
		return Resolution{AppointmentID: found.ID, Linked: true}, nil
	}

	req := schedule.SynthesizeWalkIn(patientID, doctorID, now, schedule.WalkInBillingNote)
	created, err := creator.CreateAppointment(ctx, req)
	if err != nil {
		return Resolution{}, fmt.Errorf("generate walk-in appointment: %w", err)
	}
	return Resolution{AppointmentID: created.ID, Created: true, Linked: true}, nil
}

// findToday returns the patient's first active appointment dated today.
func findToday(patientID int64, appointments []clinic.Appointment, today clinic.Date) (clinic.Appointment, bool) {
	for _, a := range appointments {
		if a.Patient == nil || a.Patient.ID != patientID {
			continue
		}
		if a.Date == today && a.Active() {
			return a, true
		}
	}
	return clinic.Appointment{}, false
}
