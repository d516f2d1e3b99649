// Package schedule implements the appointment availability engine: the fixed
// daily slot universe, booked-slot detection over the appointment collection,
// booking validation and walk-in synthesis.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/gitlakmal/clinic-system/internal/clinic"
)

// The slot universe runs 09:00 through 16:45 inclusive at 15-minute steps,
// 32 slots per day. It is a static calendar: duty roster OFF days do not
// constrain it.
const (
	openingHour = 9
	closingHour = 17
	slotStep    = 15
	SlotsPerDay = (closingHour - openingHour) * 60 / slotStep
)

// SlotUniverse returns the full ordered slot list for one day, HH:MM.
func SlotUniverse() []string {
	slots := make([]string, 0, SlotsPerDay)
	for hour := openingHour; hour < closingHour; hour++ {
		for min := 0; min < 60; min += slotStep {
			slots = append(slots, fmt.Sprintf("%02d:%02d", hour, min))
		}
	}
	return slots
}

// InUniverse reports whether slot is exactly one of the bookable times.
// Matching is strict on the zero-padded HH:MM form: slot comparison elsewhere
// is plain string equality, so a non-canonical spelling of a bookable time
// would collide with the canonical one without ever matching it.
func InUniverse(slot string) bool {
	parsed, err := time.Parse("15:04", slot)
	if err != nil || parsed.Format("15:04") != slot {
		return false
	}
	hour, min := parsed.Hour(), parsed.Minute()
	return hour >= openingHour && hour < closingHour && min%slotStep == 0
}

// BookedSlots returns the set of slots occupied by active appointments for
// the doctor on the given date. An appointment occupies a slot when its time
// truncated to HH:MM equals the slot and its status is not in the rejected
// family.
func BookedSlots(doctorID int64, date clinic.Date, appointments []clinic.Appointment) map[string]bool {
	booked := make(map[string]bool)
	for _, a := range appointments {
		if a.Doctor == nil || a.Doctor.ID != doctorID {
			continue
		}
		if a.Date != date || !a.Active() {
			continue
		}
		booked[a.SlotTime()] = true
	}
	return booked
}

// AvailableSlots returns the slot universe minus the booked slots, in order.
func AvailableSlots(doctorID int64, date clinic.Date, appointments []clinic.Appointment) []string {
	booked := BookedSlots(doctorID, date, appointments)
	free := make([]string, 0, SlotsPerDay)
	for _, slot := range SlotUniverse() {
		if !booked[slot] {
			free = append(free, slot)
		}
	}
	return free
}

// IsSlotBooked reports whether one specific slot is taken.
func IsSlotBooked(doctorID int64, date clinic.Date, slot string, appointments []clinic.Appointment) bool {
	return BookedSlots(doctorID, date, appointments)[slot]
}

// Booking validation errors.
var (
	ErrMissingField = errors.New("doctor, date and time are all required")
	ErrPastDate     = errors.New("appointment date is in the past")
	ErrBadSlot      = errors.New("time is not a bookable slot")
	ErrSlotTaken    = errors.New("time slot is already booked")
)

// ValidateBooking checks a booking attempt against the latest appointment
// fetch. The re-check against current appointments narrows, but does not
// close, the race between two concurrent bookings for the same slot; the
// backend's uniqueness check is the backstop.
func ValidateBooking(doctorID int64, date clinic.Date, slot string, today clinic.Date, appointments []clinic.Appointment) error {
	if doctorID == 0 || date == "" || slot == "" {
		return ErrMissingField
	}
	if !date.Valid() {
		return fmt.Errorf("invalid date %q", date)
	}
	if date.Before(today) {
		return ErrPastDate
	}
	if !InUniverse(slot) {
		return ErrBadSlot
	}
	if IsSlotBooked(doctorID, date, slot, appointments) {
		return ErrSlotTaken
	}
	return nil
}

// Walk-in notes, matching the producers that synthesize appointments.
const (
	WalkInConsultationNote = "Walk-in consultation (Auto-generated)"
	WalkInBillingNote      = "Bill Generated without prior appointment (Auto-created)"
)

// NewBooking builds the creation payload for a patient booking. New bookings
// always start Pending.
func NewBooking(patientID, doctorID int64, date clinic.Date, slot, notes string) clinic.AppointmentRequest {
	return clinic.NewAppointmentRequest(patientID, doctorID, date, slot, notes, "Pending")
}

// SynthesizeWalkIn builds a same-day COMPLETED appointment for flows that
// need an appointment link and have none: consultation record saves and
// standalone bills. The slot is the current wall-clock time truncated to
// HH:MM, which may fall outside the bookable universe.
func SynthesizeWalkIn(patientID, doctorID int64, now time.Time, note string) clinic.AppointmentRequest {
	return clinic.NewAppointmentRequest(patientID, doctorID, clinic.DateOf(now), now.Format("15:04"), note, "COMPLETED")
}
