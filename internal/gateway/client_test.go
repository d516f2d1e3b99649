package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gitlakmal/clinic-system/internal/clinic"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL + "/api"}, nil, nil), server
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrAuth},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrValidation},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
	}

	for _, tt := range tests {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", tt.status)
		}))

		_, err := client.ListDoctors(context.Background())
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: got %v, want %v", tt.status, err, tt.want)
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Errorf("status %d: error is not an APIError: %v", tt.status, err)
			continue
		}
		if apiErr.StatusCode != tt.status {
			t.Errorf("APIError.StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
		}
	}
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := New(Config{BaseURL: server.URL + "/api"}, nil, nil)

	_, err := client.ListDoctors(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("got %v, want ErrNetwork", err)
	}
}

func TestUpdateAppointmentStatus(t *testing.T) {
	var gotMethod, gotPath, gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("status")
		json.NewEncoder(w).Encode(clinic.Appointment{ID: 12, Status: "Approved"})
	}))

	updated, err := client.UpdateAppointmentStatus(context.Background(), 12, "Approved")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/api/appointments/12/status" {
		t.Errorf("path = %s", gotPath)
	}
	if gotQuery != "Approved" {
		t.Errorf("status query = %q", gotQuery)
	}
	if updated.ID != 12 || updated.Status != "Approved" {
		t.Errorf("updated = %+v", updated)
	}
}

func TestCreateAppointmentWirePayload(t *testing.T) {
	var got clinic.AppointmentRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(clinic.Appointment{ID: 5})
	}))

	req := clinic.NewAppointmentRequest(7, 3, "2025-06-10", "09:30", "", "Pending")
	created, err := client.CreateAppointment(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 5 {
		t.Errorf("created.ID = %d", created.ID)
	}
	if got.PatientID != "7" || got.DoctorID != "3" {
		t.Errorf("ids sent as %q/%q, want string-encoded", got.PatientID, got.DoctorID)
	}
	if got.AppointmentTime != "2025-06-10T09:30:00" {
		t.Errorf("appointmentTime = %q", got.AppointmentTime)
	}
}

func TestRosterRoundTrip(t *testing.T) {
	var savedEntries []clinic.RosterEntry
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/rosters/doctor/4":
			json.NewEncoder(w).Encode([]clinic.RosterEntry{
				{ID: 1, Date: "2025-06-02", ShiftStatus: "Morning"},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/rosters":
			var entry clinic.RosterEntry
			json.NewDecoder(r.Body).Decode(&entry)
			savedEntries = append(savedEntries, entry)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(entry)
		default:
			http.NotFound(w, r)
		}
	}))

	entries, err := client.RostersByDoctor(context.Background(), 4)
	if err != nil {
		t.Fatalf("RostersByDoctor: %v", err)
	}
	if len(entries) != 1 || entries[0].ShiftStatus != "Morning" {
		t.Errorf("entries = %+v", entries)
	}

	err = client.SaveRoster(context.Background(), clinic.RosterEntry{
		Date:        "2025-06-03",
		ShiftStatus: "Full Duty",
		Doctor:      &clinic.Doctor{ID: 4},
	})
	if err != nil {
		t.Fatalf("SaveRoster: %v", err)
	}
	if len(savedEntries) != 1 || savedEntries[0].ShiftStatus != "Full Duty" {
		t.Errorf("saved = %+v", savedEntries)
	}
}

func TestLoginFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))

	_, err := client.PatientLogin(context.Background(), Credentials{Email: "x@y.z", Password: "nope"})
	if !errors.Is(err, ErrAuth) {
		t.Errorf("got %v, want ErrAuth", err)
	}
}
