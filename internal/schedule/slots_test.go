package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/gitlakmal/clinic-system/internal/clinic"
)

func doctor(id int64) *clinic.Doctor { return &clinic.Doctor{ID: id} }

func TestSlotUniverse(t *testing.T) {
	slots := SlotUniverse()

	if len(slots) != SlotsPerDay {
		t.Fatalf("universe has %d slots, want %d", len(slots), SlotsPerDay)
	}
	if SlotsPerDay != 32 {
		t.Fatalf("SlotsPerDay = %d, want 32", SlotsPerDay)
	}
	if slots[0] != "09:00" {
		t.Errorf("first slot = %s, want 09:00", slots[0])
	}
	if slots[len(slots)-1] != "16:45" {
		t.Errorf("last slot = %s, want 16:45", slots[len(slots)-1])
	}
	for _, s := range slots {
		if !InUniverse(s) {
			t.Errorf("universe slot %s not recognized by InUniverse", s)
		}
	}
}

func TestInUniverse(t *testing.T) {
	for _, s := range []string{
		"08:45", "17:00", "09:07", "25:00", "nope", "",
		// Non-canonical spellings of bookable times would never match the
		// zero-padded universe by string equality and must be rejected.
		"9:00", "9:5", "09:5", " 09:00", "09:00 ", "09:00:00", "09:00x",
	} {
		if InUniverse(s) {
			t.Errorf("InUniverse(%q) = true, want false", s)
		}
	}
}

func TestBookedSlots(t *testing.T) {
	date := clinic.Date("2025-06-10")
	appointments := []clinic.Appointment{
		{Doctor: doctor(1), Date: date, Time: "09:00:00", Status: "Pending"},
		{Doctor: doctor(1), Date: date, Time: "09:15:00", Status: "Approved"},
		// Rejected releases the slot.
		{Doctor: doctor(1), Date: date, Time: "09:30:00", Status: "Rejected"},
		{Doctor: doctor(1), Date: date, Time: "09:45:00", Status: "Cancelled"},
		// Other doctor, other date: irrelevant.
		{Doctor: doctor(2), Date: date, Time: "10:00:00", Status: "Pending"},
		{Doctor: doctor(1), Date: "2025-06-11", Time: "10:15:00", Status: "Pending"},
	}

	booked := BookedSlots(1, date, appointments)
	if len(booked) != 2 {
		t.Fatalf("booked = %v, want exactly 09:00 and 09:15", booked)
	}
	if !booked["09:00"] || !booked["09:15"] {
		t.Errorf("booked = %v, missing expected slots", booked)
	}

	free := AvailableSlots(1, date, appointments)
	if len(free) != SlotsPerDay-2 {
		t.Errorf("available = %d slots, want %d", len(free), SlotsPerDay-2)
	}
	for _, s := range free {
		if s == "09:00" || s == "09:15" {
			t.Errorf("booked slot %s listed as available", s)
		}
	}
}

func TestValidateBooking(t *testing.T) {
	today := clinic.Date("2025-06-10")
	appointments := []clinic.Appointment{
		{Doctor: doctor(1), Date: "2025-06-11", Time: "09:00:00", Status: "Pending"},
	}

	tests := []struct {
		name     string
		doctorID int64
		date     clinic.Date
		slot     string
		wantErr  error
	}{
		{"valid booking", 1, "2025-06-11", "09:15", nil},
		{"same day is allowed", 1, "2025-06-10", "09:00", nil},
		{"missing doctor", 0, "2025-06-11", "09:15", ErrMissingField},
		{"missing date", 1, "", "09:15", ErrMissingField},
		{"missing slot", 1, "2025-06-11", "", ErrMissingField},
		{"past date", 1, "2025-06-09", "09:15", ErrPastDate},
		{"off-grid slot", 1, "2025-06-11", "09:10", ErrBadSlot},
		{"unpadded spelling of a taken slot", 1, "2025-06-11", "9:00", ErrBadSlot},
		{"before opening", 1, "2025-06-11", "08:45", ErrBadSlot},
		{"taken slot", 1, "2025-06-11", "09:00", ErrSlotTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBooking(tt.doctorID, tt.date, tt.slot, today, appointments)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := ValidateBooking(1, "2025-6-11", "09:15", today, nil); err == nil {
		t.Error("malformed date should fail validation")
	}
}

func TestNewBooking(t *testing.T) {
	req := NewBooking(5, 2, "2025-06-11", "10:30", "follow-up")
	if req.Status != "Pending" {
		t.Errorf("status = %q, want Pending", req.Status)
	}
	if req.Time != "10:30:00" {
		t.Errorf("time = %q, want 10:30:00", req.Time)
	}
}

func TestSynthesizeWalkIn(t *testing.T) {
	now := time.Date(2025, 6, 10, 18, 7, 30, 0, time.Local)
	req := SynthesizeWalkIn(5, 2, now, WalkInBillingNote)

	if req.Status != "COMPLETED" {
		t.Errorf("status = %q, want COMPLETED", req.Status)
	}
	if req.Date != "2025-06-10" {
		t.Errorf("date = %q, want 2025-06-10", req.Date)
	}
	// Walk-in time is wall clock, not restricted to the bookable grid.
	if req.Time != "18:07:00" {
		t.Errorf("time = %q, want 18:07:00", req.Time)
	}
	if req.Notes != WalkInBillingNote {
		t.Errorf("notes = %q", req.Notes)
	}
}
