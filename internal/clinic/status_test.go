package clinic

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"Pending", StatusPending},
		{"PENDING", StatusPending},
		{"Approved", StatusApproved},
		{"APPROVED", StatusApproved},
		{"Scheduled", StatusApproved},
		{"Confirmed", StatusApproved},
		{"accepted", StatusApproved},
		{"Rejected", StatusRejected},
		{"Cancelled", StatusRejected},
		{"canceled", StatusRejected},
		{"DECLINED", StatusRejected},
		{"Completed", StatusCompleted},
		{"COMPLETED", StatusCompleted},
		{"", StatusPending},
		{"garbage", StatusPending},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestDisplayStatus(t *testing.T) {
	today := Date("2025-06-15")

	tests := []struct {
		name string
		appt Appointment
		want string
	}{
		{
			name: "approved in the past displays completed",
			appt: Appointment{Date: "2025-06-10", Status: "Approved"},
			want: "COMPLETED",
		},
		{
			name: "scheduled in the past displays completed",
			appt: Appointment{Date: "2025-06-10", Status: "Scheduled"},
			want: "COMPLETED",
		},
		{
			name: "approved today keeps stored status",
			appt: Appointment{Date: "2025-06-15", Status: "Approved"},
			want: "Approved",
		},
		{
			name: "approved in the future keeps stored status",
			appt: Appointment{Date: "2025-06-20", Status: "Approved"},
			want: "Approved",
		},
		{
			name: "pending in the past keeps stored status",
			appt: Appointment{Date: "2025-06-10", Status: "Pending"},
			want: "Pending",
		},
		{
			name: "rejected in the past keeps stored status",
			appt: Appointment{Date: "2025-06-10", Status: "Rejected"},
			want: "Rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayStatus(tt.appt, today); got != tt.want {
				t.Errorf("DisplayStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		current   string
		requested string
		want      Status
		wantErr   bool
	}{
		{"Pending", "Approved", StatusApproved, false},
		{"Pending", "Rejected", StatusRejected, false},
		{"Approved", "Completed", StatusCompleted, false},
		{"Pending", "Completed", "", true},
		{"Rejected", "Approved", "", true},
		{"Completed", "Pending", "", true},
		{"Approved", "Rejected", "", true},
		// Idempotent re-apply.
		{"Approved", "Approved", StatusApproved, false},
		{"Rejected", "CANCELLED", StatusRejected, false},
		// Raw tokens normalize before checking.
		{"pending", "SCHEDULED", StatusApproved, false},
	}

	for _, tt := range tests {
		got, err := ValidateTransition(tt.current, tt.requested)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ValidateTransition(%q, %q): expected error, got %s", tt.current, tt.requested, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateTransition(%q, %q): unexpected error %v", tt.current, tt.requested, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateTransition(%q, %q) = %s, want %s", tt.current, tt.requested, got, tt.want)
		}
	}
}

func TestAppointmentActive(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"Pending", true},
		{"Approved", true},
		{"Completed", true},
		{"COMPLETED", true},
		{"Rejected", false},
		{"Cancelled", false},
		{"declined", false},
	}

	for _, tt := range tests {
		a := Appointment{Status: tt.status}
		if got := a.Active(); got != tt.want {
			t.Errorf("Active() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}
