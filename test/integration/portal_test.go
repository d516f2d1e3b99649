// Package integration exercises the portal API end to end against an
// in-memory clinic backend.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/api/handlers"
	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/gateway"
	"github.com/gitlakmal/clinic-system/internal/observability/metrics"
	"github.com/gitlakmal/clinic-system/internal/roster"
	"github.com/gitlakmal/clinic-system/internal/session"
)

// fakeBackend is a minimal in-memory stand-in for the clinic REST backend.
type fakeBackend struct {
	mu           sync.Mutex
	nextID       int64
	patients     []clinic.Patient
	doctors      []clinic.Doctor
	appointments []clinic.Appointment
	rosters      []clinic.RosterEntry
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID: 100,
		patients: []clinic.Patient{
			{ID: 7, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
		},
		doctors: []clinic.Doctor{
			{ID: 3, Name: "Dr. Smith", Specialization: "Cardiology", Email: "smith@clinic.lk"},
		},
	}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/patients/login", func(w http.ResponseWriter, r *http.Request) {
		var creds gateway.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email == "jane@example.com" && creds.Password == "secret" {
			json.NewEncoder(w).Encode(b.patients[0])
			return
		}
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/doctors/login", func(w http.ResponseWriter, r *http.Request) {
		var creds gateway.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email == "smith@clinic.lk" && creds.Password == "secret" {
			json.NewEncoder(w).Encode(b.doctors[0])
			return
		}
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	})

	mux.HandleFunc("/api/doctors", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.doctors)
	})
	mux.HandleFunc("/api/patients", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.patients)
	})

	mux.HandleFunc("/api/appointments", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(b.appointments)
		case http.MethodPost:
			var req clinic.AppointmentRequest
			json.NewDecoder(r.Body).Decode(&req)
			appt, err := b.insertLocked(req)
			if err != nil {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(appt)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/api/appointments/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		rest := strings.TrimPrefix(r.URL.Path, "/api/appointments/")
		idStr, isStatus := rest, false
		if s, ok := strings.CutSuffix(rest, "/status"); ok {
			idStr, isStatus = s, true
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		for i := range b.appointments {
			if b.appointments[i].ID != id {
				continue
			}
			if isStatus && r.Method == http.MethodPut {
				b.appointments[i].Status = r.URL.Query().Get("status")
			}
			json.NewEncoder(w).Encode(b.appointments[i])
			return
		}
		http.Error(w, "no appointment", http.StatusNotFound)
	})

	mux.HandleFunc("/api/rosters", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if r.Method == http.MethodPost {
			var entry clinic.RosterEntry
			json.NewDecoder(r.Body).Decode(&entry)
			b.rosters = append(b.rosters, entry)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(entry)
			return
		}
		json.NewEncoder(w).Encode(b.rosters)
	})
	mux.HandleFunc("/api/rosters/doctor/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.rosters)
	})

	return mux
}

// insertLocked enforces the slot uniqueness constraint the real backend has.
func (b *fakeBackend) insertLocked(req clinic.AppointmentRequest) (clinic.Appointment, error) {
	doctorID, _ := strconv.ParseInt(req.DoctorID, 10, 64)
	patientID, _ := strconv.ParseInt(req.PatientID, 10, 64)

	for _, a := range b.appointments {
		if a.Doctor != nil && a.Doctor.ID == doctorID && a.Date == req.Date && a.Time == req.Time && a.Active() {
			return clinic.Appointment{}, fmt.Errorf("slot already booked")
		}
	}

	b.nextID++
	appt := clinic.Appointment{
		ID:     b.nextID,
		Date:   req.Date,
		Time:   req.Time,
		Status: req.Status,
		Notes:  req.Notes,
	}
	for i := range b.doctors {
		if b.doctors[i].ID == doctorID {
			appt.Doctor = &b.doctors[i]
		}
	}
	for i := range b.patients {
		if b.patients[i].ID == patientID {
			appt.Patient = &b.patients[i]
		}
	}
	b.appointments = append(b.appointments, appt)
	return appt, nil
}

type portalFixture struct {
	t      *testing.T
	server *httptest.Server
	portal *handlers.Portal
	now    time.Time
}

func newPortalFixture(t *testing.T) *portalFixture {
	t.Helper()

	backend := newFakeBackend()
	backendServer := httptest.NewServer(backend.handler())
	t.Cleanup(backendServer.Close)

	client := gateway.New(gateway.Config{BaseURL: backendServer.URL + "/api"}, nil, zap.NewNop())
	authority, err := session.NewAuthority([]byte("integration-test"), time.Hour, nil)
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}

	m := metrics.NewWith(prometheus.NewRegistry())
	portal := handlers.NewPortal(client, authority, nil, m, zap.NewNop())

	f := &portalFixture{
		t:      t,
		portal: portal,
		now:    time.Date(2025, 6, 10, 10, 0, 0, 0, time.Local),
	}
	portal.Clock = func() time.Time { return f.now }

	f.server = httptest.NewServer(portal.Routes())
	t.Cleanup(f.server.Close)
	return f
}

func (f *portalFixture) request(method, path, token string, body interface{}, out interface{}) int {
	f.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			f.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		f.t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		f.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func (f *portalFixture) login(role, email, password string) string {
	f.t.Helper()
	var resp handlers.LoginResponse
	code := f.request(http.MethodPost, "/sessions/"+role, "", handlers.LoginRequest{Email: email, Password: password}, &resp)
	if code != http.StatusOK {
		f.t.Fatalf("%s login returned %d", role, code)
	}
	if resp.Token == "" {
		f.t.Fatalf("%s login returned no token", role)
	}
	return resp.Token
}

func TestBookingLifecycle(t *testing.T) {
	f := newPortalFixture(t)

	patientToken := f.login("patient", "jane@example.com", "secret")
	doctorToken := f.login("doctor", "smith@clinic.lk", "secret")

	// The full universe is free before any booking.
	var slots handlers.SlotsResponse
	if code := f.request(http.MethodGet, "/doctors/3/slots?date=2025-06-11", patientToken, nil, &slots); code != http.StatusOK {
		t.Fatalf("slots returned %d", code)
	}
	if len(slots.Available) != 32 || len(slots.Booked) != 0 {
		t.Fatalf("pre-booking slots: %d available, %d booked", len(slots.Available), len(slots.Booked))
	}

	// Book 09:30 tomorrow.
	var booked handlers.AppointmentView
	code := f.request(http.MethodPost, "/appointments", patientToken, handlers.BookRequest{
		DoctorID: 3, Date: "2025-06-11", Time: "09:30",
	}, &booked)
	if code != http.StatusCreated {
		t.Fatalf("booking returned %d", code)
	}
	if booked.Status != "Pending" {
		t.Errorf("new booking status = %q, want Pending", booked.Status)
	}

	// The slot is now gone.
	f.request(http.MethodGet, "/doctors/3/slots?date=2025-06-11", patientToken, nil, &slots)
	if len(slots.Available) != 31 || len(slots.Booked) != 1 || slots.Booked[0] != "09:30" {
		t.Errorf("post-booking slots: %+v", slots)
	}

	// A second booking of the same slot conflicts.
	if code := f.request(http.MethodPost, "/appointments", patientToken, handlers.BookRequest{
		DoctorID: 3, Date: "2025-06-11", Time: "09:30",
	}, nil); code != http.StatusConflict {
		t.Errorf("duplicate booking returned %d, want 409", code)
	}

	// Doctor approves.
	var approved handlers.AppointmentView
	path := fmt.Sprintf("/appointments/%d/status", booked.ID)
	if code := f.request(http.MethodPut, path, doctorToken, handlers.StatusUpdateRequest{Status: "Approved"}, &approved); code != http.StatusOK {
		t.Fatalf("approval returned %d", code)
	}
	if approved.Status != "Approved" {
		t.Errorf("approved status = %q", approved.Status)
	}

	// Illegal transition is refused.
	if code := f.request(http.MethodPut, path, doctorToken, handlers.StatusUpdateRequest{Status: "Pending"}, nil); code != http.StatusConflict {
		t.Errorf("illegal transition returned %d, want 409", code)
	}

	// Once the date passes, the patient sees COMPLETED without any write.
	f.now = time.Date(2025, 6, 12, 9, 0, 0, 0, time.Local)

	var views []handlers.AppointmentView
	if code := f.request(http.MethodGet, "/appointments", patientToken, nil, &views); code != http.StatusOK {
		t.Fatalf("list returned %d", code)
	}
	if len(views) != 1 {
		t.Fatalf("patient sees %d appointments, want 1", len(views))
	}
	if views[0].DisplayStatus != "COMPLETED" {
		t.Errorf("display status = %q, want COMPLETED", views[0].DisplayStatus)
	}
	if views[0].Status != "Approved" {
		t.Errorf("stored status mutated to %q", views[0].Status)
	}
}

func TestBookingRejectsPastAndOffGrid(t *testing.T) {
	f := newPortalFixture(t)
	token := f.login("patient", "jane@example.com", "secret")

	if code := f.request(http.MethodPost, "/appointments", token, handlers.BookRequest{
		DoctorID: 3, Date: "2025-06-09", Time: "09:30",
	}, nil); code != http.StatusBadRequest {
		t.Errorf("past date returned %d, want 400", code)
	}

	if code := f.request(http.MethodPost, "/appointments", token, handlers.BookRequest{
		DoctorID: 3, Date: "2025-06-11", Time: "09:10",
	}, nil); code != http.StatusBadRequest {
		t.Errorf("off-grid slot returned %d, want 400", code)
	}
}

func TestLoginFailureIsGeneric(t *testing.T) {
	f := newPortalFixture(t)

	var errResp map[string]string
	code := f.request(http.MethodPost, "/sessions/patient", "", handlers.LoginRequest{
		Email: "jane@example.com", Password: "wrong",
	}, &errResp)
	if code != http.StatusUnauthorized {
		t.Fatalf("bad login returned %d", code)
	}
	if errResp["error"] != "Invalid Email or Password" {
		t.Errorf("error message = %q", errResp["error"])
	}
}

func TestSessionRequired(t *testing.T) {
	f := newPortalFixture(t)

	if code := f.request(http.MethodGet, "/appointments", "", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("unauthenticated list returned %d, want 401", code)
	}
	if code := f.request(http.MethodGet, "/appointments", "garbage-token", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("garbage token returned %d, want 401", code)
	}
}

func TestRosterWindow(t *testing.T) {
	f := newPortalFixture(t)
	doctorToken := f.login("doctor", "smith@clinic.lk", "secret")

	// Save two shifts inside the window.
	var saveResp handlers.RosterSaveResponse
	code := f.request(http.MethodPut, "/doctors/3/roster", doctorToken, handlers.RosterSaveRequest{
		Days: []roster.Day{
			{Date: "2025-06-11", Status: roster.Duty},
			{Date: "2025-06-12", Status: roster.HalfdayMorning},
		},
	}, &saveResp)
	if code != http.StatusOK {
		t.Fatalf("roster save returned %d", code)
	}
	if saveResp.Saved != 2 || len(saveResp.FailedDates) != 0 {
		t.Fatalf("save result = %+v", saveResp)
	}

	// The reconciled window is complete and carries the saved shifts.
	var rosterResp handlers.RosterResponse
	if code := f.request(http.MethodGet, "/doctors/3/roster", doctorToken, nil, &rosterResp); code != http.StatusOK {
		t.Fatalf("roster get returned %d", code)
	}
	if len(rosterResp.Days) != roster.WindowDays {
		t.Fatalf("window has %d days, want %d", len(rosterResp.Days), roster.WindowDays)
	}
	if rosterResp.Days[0].Date != "2025-06-10" {
		t.Errorf("window starts %s, want today", rosterResp.Days[0].Date)
	}

	byDate := make(map[clinic.Date]roster.ShiftStatus)
	for _, d := range rosterResp.Days {
		byDate[d.Date] = d.Status
	}
	if byDate["2025-06-11"] != roster.Duty || byDate["2025-06-12"] != roster.HalfdayMorning {
		t.Errorf("saved shifts not reconciled: %v", byDate)
	}
	if byDate["2025-06-15"] != roster.Off {
		t.Errorf("unsaved day = %s, want OFF", byDate["2025-06-15"])
	}

	// A doctor cannot touch another doctor's roster.
	if code := f.request(http.MethodGet, "/doctors/99/roster", doctorToken, nil, nil); code != http.StatusForbidden {
		t.Errorf("foreign roster returned %d, want 403", code)
	}
}
