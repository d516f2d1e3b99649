// Package clinic defines the domain model shared by the portal services:
// patients, doctors, appointments, medical records, billing and duty rosters,
// plus the canonical appointment status lifecycle.
package clinic

import (
	"fmt"
	"time"
)

// Date is a calendar day in the actor's local calendar, formatted YYYY-MM-DD.
// Keeping dates as local calendar strings avoids timezone offset defects when
// comparing against "today".
type Date string

const dateLayout = "2006-01-02"

// DateOf truncates t to its local calendar day.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// Valid reports whether d is a well-formed calendar date.
func (d Date) Valid() bool {
	_, err := time.Parse(dateLayout, string(d))
	return err == nil
}

// Before reports whether d is strictly earlier than other.
// Lexicographic comparison is correct for YYYY-MM-DD.
func (d Date) Before(other Date) bool {
	return string(d) < string(other)
}

// AddDays returns the date n days after d. d must be valid.
func (d Date) AddDays(n int) Date {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

func (d Date) String() string { return string(d) }

// ParseDate validates and returns a Date.
func ParseDate(s string) (Date, error) {
	d := Date(s)
	if !d.Valid() {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

// Patient is a registered clinic patient.
type Patient struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Age       string `json:"age"`
	Gender    string `json:"gender,omitempty"`
	// Password is write-only: sent on registration, never echoed back.
	Password string `json:"password,omitempty"`
	// CreatedAt is the registration timestamp as reported by the backend.
	// May be empty for rows that predate the column.
	CreatedAt string `json:"createdAt,omitempty"`
}

// FullName joins the patient's first and last names.
func (p Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Doctor is a clinic doctor. Password is write-only: it is sent on creation
// and never echoed back.
type Doctor struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Experience     string `json:"experience,omitempty"`
	Password       string `json:"password,omitempty"`
}

// Appointment is a booked (or synthesized walk-in) consultation. Date and
// time are immutable after creation; only the status moves.
type Appointment struct {
	ID      int64    `json:"id"`
	Date    Date     `json:"date"`
	Time    string   `json:"time"`
	Status  string   `json:"status"`
	Patient *Patient `json:"patient,omitempty"`
	Doctor  *Doctor  `json:"doctor,omitempty"`
	Notes   string   `json:"notes,omitempty"`
}

// Active reports whether the appointment still occupies its slot. Rejected
// and cancelled appointments release the slot; everything else, including
// completed walk-ins, keeps it.
func (a Appointment) Active() bool {
	return Normalize(a.Status) != StatusRejected
}

// SlotTime returns the appointment time truncated to HH:MM, matching the
// slot universe granularity. Backend rows carry HH:MM:SS.
func (a Appointment) SlotTime() string {
	if len(a.Time) >= 5 {
		return a.Time[:5]
	}
	return a.Time
}

// MedicalRecord is a consultation record, created only by a doctor.
type MedicalRecord struct {
	ID         int64    `json:"id"`
	Diagnosis  string   `json:"diagnosis"`
	Treatment  string   `json:"treatment"`
	Notes      string   `json:"notes,omitempty"`
	RecordDate Date     `json:"recordDate"`
	Patient    *Patient `json:"patient,omitempty"`
	Doctor     *Doctor  `json:"doctor,omitempty"`
}

// Billing is a bill linked to exactly one appointment. The appointment link
// may be synthesized as a walk-in when none exists for the patient today.
type Billing struct {
	BillID        int64        `json:"billId"`
	Amount        float64      `json:"amount"`
	PaymentMethod string       `json:"paymentMethod"`
	PaymentDate   string       `json:"paymentDate,omitempty"`
	Status        string       `json:"status"`
	Appointment   *Appointment `json:"appointment,omitempty"`
}

// Admin is a back-office administrator account.
type Admin struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// RosterEntry is a persisted duty record for one doctor on one day. Only
// entries that deviate from "Off" need persisting; the full 30-day window is
// derived by reconciliation.
type RosterEntry struct {
	ID          int64   `json:"id,omitempty"`
	Date        Date    `json:"date"`
	ShiftStatus string  `json:"shiftStatus"`
	Doctor      *Doctor `json:"doctor,omitempty"`
}
