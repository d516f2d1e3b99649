// Package roster implements duty roster reconciliation: merging the sparse
// persisted roster records into the complete 30-day rolling window, and the
// batch save of an edited window with per-date failure reporting.
package roster

import (
	"context"
	"fmt"

	"github.com/gitlakmal/clinic-system/internal/clinic"
)

// ShiftStatus is the derived duty status for one day of the window.
type ShiftStatus string

const (
	Duty           ShiftStatus = "DUTY"
	HalfdayMorning ShiftStatus = "HALFDAY-MORNING"
	HalfdayEvening ShiftStatus = "HALFDAY-EVENING"
	Off            ShiftStatus = "OFF"
)

// WindowDays is the length of the rolling roster window.
const WindowDays = 30

// Day is one reconciled day of the duty window.
type Day struct {
	Date   clinic.Date `json:"date"`
	Status ShiftStatus `json:"status"`
}

// Window returns the 30 consecutive calendar days starting at from.
func Window(from clinic.Date) []clinic.Date {
	days := make([]clinic.Date, WindowDays)
	for i := range days {
		days[i] = from.AddDays(i)
	}
	return days
}

// FromPersisted maps a persisted shiftStatus label onto the derived status.
// Anything unrecognized, including the explicit "Off", maps to OFF.
func FromPersisted(shiftStatus string) ShiftStatus {
	switch shiftStatus {
	case "Full Duty":
		return Duty
	case "Morning":
		return HalfdayMorning
	case "Evening":
		return HalfdayEvening
	default:
		return Off
	}
}

// ToPersisted maps a derived status back to the label the backend stores.
func ToPersisted(s ShiftStatus) string {
	switch s {
	case Duty:
		return "Full Duty"
	case HalfdayMorning:
		return "Morning"
	case HalfdayEvening:
		return "Evening"
	default:
		return "Off"
	}
}

// Reconcile left-joins the window against the persisted entries: every
// window date appears exactly once, in ascending order, carrying the mapped
// status of its persisted entry or OFF when none exists. Persisted entries
// outside the window are ignored.
func Reconcile(window []clinic.Date, persisted []clinic.RosterEntry) []Day {
	byDate := make(map[clinic.Date]string, len(persisted))
	for _, e := range persisted {
		byDate[e.Date] = e.ShiftStatus
	}

	days := make([]Day, len(window))
	for i, date := range window {
		status := Off
		if shift, ok := byDate[date]; ok {
			status = FromPersisted(shift)
		}
		days[i] = Day{Date: date, Status: status}
	}
	return days
}

// Saver persists one roster entry with create-or-update semantics keyed by
// (doctor, date). The gateway client implements it.
type Saver interface {
	SaveRoster(ctx context.Context, entry clinic.RosterEntry) error
}

// SaveResult reports the outcome of a window save.
type SaveResult struct {
	Saved       int           `json:"saved"`
	FailedDates []clinic.Date `json:"failed_dates,omitempty"`
}

// Failed reports whether any date failed to persist.
func (r SaveResult) Failed() bool { return len(r.FailedDates) > 0 }

func (r SaveResult) String() string {
	if !r.Failed() {
		return fmt.Sprintf("saved %d roster entries", r.Saved)
	}
	return fmt.Sprintf("saved %d roster entries, %d failed", r.Saved, len(r.FailedDates))
}

// SaveWindow persists the full window entry by entry. There is no transaction
// boundary across entries; instead of aborting mid-loop it records exactly
// which dates failed so the caller can report and retry them.
func SaveWindow(ctx context.Context, saver Saver, doctorID int64, days []Day) SaveResult {
	var result SaveResult
	for _, day := range days {
		entry := clinic.RosterEntry{
			Date:        day.Date,
			ShiftStatus: ToPersisted(day.Status),
			Doctor:      &clinic.Doctor{ID: doctorID},
		}
		if err := saver.SaveRoster(ctx, entry); err != nil {
			result.FailedDates = append(result.FailedDates, day.Date)
			continue
		}
		result.Saved++
	}
	return result
}
