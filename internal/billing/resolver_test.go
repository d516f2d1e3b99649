package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/schedule"
)

type fakeCreator struct {
	created *clinic.AppointmentRequest
	nextID  int64
	err     error
}

func (f *fakeCreator) CreateAppointment(ctx context.Context, req clinic.AppointmentRequest) (clinic.Appointment, error) {
	if f.err != nil {
		return clinic.Appointment{}, f.err
	}
	f.created = &req
	return clinic.Appointment{ID: f.nextID, Date: req.Date, Status: req.Status}, nil
}

var now = time.Date(2025, 6, 10, 14, 30, 0, 0, time.Local)

func TestResolveExplicitID(t *testing.T) {
	creator := &fakeCreator{}
	res, err := ResolveAppointmentID(context.Background(), 5, 2, 99, nil, now, creator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AppointmentID != 99 || res.Created || !res.Linked {
		t.Errorf("resolution = %+v, want explicit link to 99", res)
	}
	if creator.created != nil {
		t.Error("explicit id must not synthesize a walk-in")
	}
}

func TestResolveFoundToday(t *testing.T) {
	appointments := []clinic.Appointment{
		// Wrong patient.
		{ID: 1, Date: "2025-06-10", Status: "Approved", Patient: &clinic.Patient{ID: 8}},
		// Right patient, wrong day.
		{ID: 2, Date: "2025-06-09", Status: "Approved", Patient: &clinic.Patient{ID: 5}},
		// Right patient today but rejected: not active.
		{ID: 3, Date: "2025-06-10", Status: "Rejected", Patient: &clinic.Patient{ID: 5}},
		// The match.
		{ID: 4, Date: "2025-06-10", Status: "Pending", Patient: &clinic.Patient{ID: 5}},
	}

	creator := &fakeCreator{}
	res, err := ResolveAppointmentID(context.Background(), 5, 2, 0, appointments, now, creator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AppointmentID != 4 || res.Created {
		t.Errorf("resolution = %+v, want existing appointment 4", res)
	}
	if creator.created != nil {
		t.Error("found appointment must not synthesize a walk-in")
	}
}

func TestResolveSynthesizesWalkIn(t *testing.T) {
	creator := &fakeCreator{nextID: 42}
	res, err := ResolveAppointmentID(context.Background(), 5, 2, 0, nil, now, creator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AppointmentID != 42 || !res.Created || !res.Linked {
		t.Errorf("resolution = %+v, want synthesized walk-in 42", res)
	}

	if creator.created == nil {
		t.Fatal("walk-in was not created")
	}
	if creator.created.Status != "COMPLETED" {
		t.Errorf("walk-in status = %q, want COMPLETED", creator.created.Status)
	}
	if creator.created.Notes != schedule.WalkInBillingNote {
		t.Errorf("walk-in notes = %q", creator.created.Notes)
	}
	if creator.created.Date != "2025-06-10" {
		t.Errorf("walk-in date = %q, want today", creator.created.Date)
	}
}

func TestResolveSynthesisFailureIsNonFatal(t *testing.T) {
	creator := &fakeCreator{err: errors.New("backend down")}
	res, err := ResolveAppointmentID(context.Background(), 5, 2, 0, nil, now, creator)
	if err == nil {
		t.Fatal("expected synthesis error")
	}
	if res.Linked {
		t.Errorf("resolution = %+v, want unlinked", res)
	}
}
