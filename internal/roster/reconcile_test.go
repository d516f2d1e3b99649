package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/gitlakmal/clinic-system/internal/clinic"
)

func TestWindow(t *testing.T) {
	window := Window("2025-06-01")

	if len(window) != WindowDays {
		t.Fatalf("window has %d days, want %d", len(window), WindowDays)
	}
	if window[0] != "2025-06-01" {
		t.Errorf("first day = %s, want 2025-06-01", window[0])
	}
	if window[29] != "2025-06-30" {
		t.Errorf("last day = %s, want 2025-06-30", window[29])
	}
	for i := 1; i < len(window); i++ {
		if !window[i-1].Before(window[i]) {
			t.Fatalf("window not ascending at index %d: %s then %s", i, window[i-1], window[i])
		}
	}
}

func TestShiftStatusMapping(t *testing.T) {
	tests := []struct {
		persisted string
		want      ShiftStatus
	}{
		{"Full Duty", Duty},
		{"Morning", HalfdayMorning},
		{"Evening", HalfdayEvening},
		{"Off", Off},
		{"", Off},
		{"weird", Off},
	}
	for _, tt := range tests {
		if got := FromPersisted(tt.persisted); got != tt.want {
			t.Errorf("FromPersisted(%q) = %s, want %s", tt.persisted, got, tt.want)
		}
	}

	// Round trip for the three real shifts.
	for _, s := range []ShiftStatus{Duty, HalfdayMorning, HalfdayEvening, Off} {
		if got := FromPersisted(ToPersisted(s)); got != s {
			t.Errorf("round trip of %s = %s", s, got)
		}
	}
}

func TestReconcile(t *testing.T) {
	window := Window("2025-06-01")
	persisted := []clinic.RosterEntry{
		{Date: "2025-06-02", ShiftStatus: "Morning"},
		{Date: "2025-06-05", ShiftStatus: "Full Duty"},
		// Outside the window: ignored.
		{Date: "2025-07-15", ShiftStatus: "Full Duty"},
		{Date: "2025-05-31", ShiftStatus: "Evening"},
	}

	days := Reconcile(window, persisted)
	if len(days) != WindowDays {
		t.Fatalf("reconciled %d days, want %d", len(days), WindowDays)
	}

	byDate := make(map[clinic.Date]ShiftStatus)
	for _, d := range days {
		byDate[d.Date] = d.Status
	}

	if byDate["2025-06-02"] != HalfdayMorning {
		t.Errorf("2025-06-02 = %s, want %s", byDate["2025-06-02"], HalfdayMorning)
	}
	if byDate["2025-06-05"] != Duty {
		t.Errorf("2025-06-05 = %s, want %s", byDate["2025-06-05"], Duty)
	}
	if byDate["2025-06-01"] != Off || byDate["2025-06-30"] != Off {
		t.Error("days without persisted entries should be OFF")
	}
	if _, ok := byDate["2025-07-15"]; ok {
		t.Error("entry outside the window leaked into the result")
	}
}

type fakeSaver struct {
	saved    []clinic.RosterEntry
	failDate clinic.Date
}

func (f *fakeSaver) SaveRoster(ctx context.Context, entry clinic.RosterEntry) error {
	if entry.Date == f.failDate {
		return errors.New("backend unavailable")
	}
	f.saved = append(f.saved, entry)
	return nil
}

func TestSaveWindow(t *testing.T) {
	days := []Day{
		{Date: "2025-06-01", Status: Duty},
		{Date: "2025-06-02", Status: HalfdayMorning},
		{Date: "2025-06-03", Status: Off},
	}

	saver := &fakeSaver{}
	result := SaveWindow(context.Background(), saver, 4, days)

	if result.Failed() {
		t.Fatalf("unexpected failures: %v", result.FailedDates)
	}
	if result.Saved != 3 {
		t.Errorf("saved = %d, want 3", result.Saved)
	}
	if saver.saved[0].ShiftStatus != "Full Duty" || saver.saved[1].ShiftStatus != "Morning" || saver.saved[2].ShiftStatus != "Off" {
		t.Errorf("persisted labels wrong: %+v", saver.saved)
	}
	for _, e := range saver.saved {
		if e.Doctor == nil || e.Doctor.ID != 4 {
			t.Errorf("entry missing doctor id: %+v", e)
		}
	}
}

func TestSaveWindowPartialFailure(t *testing.T) {
	days := []Day{
		{Date: "2025-06-01", Status: Duty},
		{Date: "2025-06-02", Status: Duty},
		{Date: "2025-06-03", Status: Duty},
	}

	saver := &fakeSaver{failDate: "2025-06-02"}
	result := SaveWindow(context.Background(), saver, 4, days)

	if result.Saved != 2 {
		t.Errorf("saved = %d, want 2", result.Saved)
	}
	if len(result.FailedDates) != 1 || result.FailedDates[0] != "2025-06-02" {
		t.Errorf("failed dates = %v, want [2025-06-02]", result.FailedDates)
	}
	if !result.Failed() {
		t.Error("Failed() should report true")
	}
}
