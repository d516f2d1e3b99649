// Package stats derives the dashboard summary statistics from raw backend
// collections. Everything here is pure and synchronous; the handlers
// recompute on every fetch.
package stats

import (
	"time"

	"github.com/gitlakmal/clinic-system/internal/clinic"
)

// Bucket is one labeled count in a distribution.
type Bucket struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// SpecializationDistribution groups doctors by specialization, counting per
// group in first-seen order. Blank specializations count under "General".
func SpecializationDistribution(doctors []clinic.Doctor) []Bucket {
	counts := make(map[string]int)
	var order []string
	for _, d := range doctors {
		spec := d.Specialization
		if spec == "" {
			spec = "General"
		}
		if _, seen := counts[spec]; !seen {
			order = append(order, spec)
		}
		counts[spec]++
	}

	buckets := make([]Bucket, len(order))
	for i, spec := range order {
		buckets[i] = Bucket{Label: spec, Value: counts[spec]}
	}
	return buckets
}

// StatusBuckets classifies appointments into Confirmed, Pending and
// Cancelled through the canonical status normalization. Completed walk-ins
// have no bucket of their own and land in Pending, matching the dashboards.
func StatusBuckets(appointments []clinic.Appointment) []Bucket {
	var confirmed, pending, cancelled int
	for _, a := range appointments {
		switch clinic.Normalize(a.Status) {
		case clinic.StatusApproved:
			confirmed++
		case clinic.StatusRejected:
			cancelled++
		default:
			pending++
		}
	}
	return []Bucket{
		{Label: "Confirmed", Value: confirmed},
		{Label: "Pending", Value: pending},
		{Label: "Cancelled", Value: cancelled},
	}
}

// PatientGrowth buckets patients by registration month over the trailing six
// calendar months including the current one, oldest first. Patients with no
// parseable registration date count toward the current month.
func PatientGrowth(patients []clinic.Patient, now time.Time) []Bucket {
	const months = 6

	// Label arithmetic runs on the first of the month: AddDate on a
	// month-end now would normalize through short months and mislabel.
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	buckets := make([]Bucket, months)
	for i := 0; i < months; i++ {
		m := anchor.AddDate(0, i-(months-1), 0)
		buckets[i] = Bucket{Label: m.Format("Jan")}
	}

	nowIndex := now.Year()*12 + int(now.Month())
	for _, p := range patients {
		diff := 0
		if t, ok := parseRegistration(p.CreatedAt); ok {
			diff = nowIndex - (t.Year()*12 + int(t.Month()))
		}
		if diff >= 0 && diff < months {
			buckets[months-1-diff].Value++
		}
	}
	return buckets
}

// parseRegistration accepts the timestamp shapes the backend has produced
// over time.
func parseRegistration(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
