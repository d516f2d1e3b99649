package clinic

import (
	"testing"
	"time"
)

func TestDate(t *testing.T) {
	if d := DateOf(time.Date(2025, 6, 1, 23, 59, 0, 0, time.Local)); d != "2025-06-01" {
		t.Errorf("DateOf = %s, want 2025-06-01", d)
	}

	if !Date("2025-06-01").Valid() {
		t.Error("2025-06-01 should be valid")
	}
	for _, bad := range []string{"", "2025-6-1", "06/01/2025", "2025-13-01", "not-a-date"} {
		if Date(bad).Valid() {
			t.Errorf("%q should be invalid", bad)
		}
	}

	if !Date("2025-05-31").Before("2025-06-01") {
		t.Error("2025-05-31 should be before 2025-06-01")
	}
	if Date("2025-06-01").Before("2025-06-01") {
		t.Error("Before must be strict")
	}

	// Month rollover.
	if d := Date("2025-05-31").AddDays(1); d != "2025-06-01" {
		t.Errorf("AddDays(1) = %s, want 2025-06-01", d)
	}
	if d := Date("2025-06-01").AddDays(29); d != "2025-06-30" {
		t.Errorf("AddDays(29) = %s, want 2025-06-30", d)
	}

	if _, err := ParseDate("2025-06-01"); err != nil {
		t.Errorf("ParseDate valid: %v", err)
	}
	if _, err := ParseDate("tomorrow"); err == nil {
		t.Error("ParseDate should reject malformed input")
	}
}

func TestSlotTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"09:15:00", "09:15"},
		{"09:15", "09:15"},
		{"9:15", "9:15"},
		{"", ""},
	}
	for _, tt := range tests {
		a := Appointment{Time: tt.in}
		if got := a.SlotTime(); got != tt.want {
			t.Errorf("SlotTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPatientFullName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Jane", "Doe", "Jane Doe"},
		{"Jane", "", "Jane"},
		{"", "Doe", "Doe"},
		{"", "", ""},
	}
	for _, tt := range tests {
		p := Patient{FirstName: tt.first, LastName: tt.last}
		if got := p.FullName(); got != tt.want {
			t.Errorf("FullName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestNewAppointmentRequest(t *testing.T) {
	req := NewAppointmentRequest(7, 3, "2025-06-10", "09:30", "checkup", "Pending")

	if req.PatientID != "7" || req.DoctorID != "3" {
		t.Errorf("ids = %q/%q, want string-encoded 7/3", req.PatientID, req.DoctorID)
	}
	if req.Time != "09:30:00" {
		t.Errorf("time = %q, want 09:30:00", req.Time)
	}
	if req.AppointmentTime != "2025-06-10T09:30:00" {
		t.Errorf("appointmentTime = %q", req.AppointmentTime)
	}
	if req.Status != "Pending" {
		t.Errorf("status = %q", req.Status)
	}
}
