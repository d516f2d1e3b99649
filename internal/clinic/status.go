package clinic

import (
	"fmt"
	"strings"
)

// Status is the canonical appointment lifecycle status. The backend and its
// historical producers use free-text tokens with inconsistent casing
// ("Pending", "APPROVED", "Scheduled", "Cancelled", ...); Normalize is the
// single place that maps them onto this enum.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCompleted Status = "Completed"
)

// Normalize maps a raw status token onto the canonical lifecycle.
// Approved, Scheduled, Confirmed and Accepted are synonyms, as are Rejected,
// Cancelled and Declined. Unrecognized tokens count as Pending.
func Normalize(raw string) Status {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "confirm"),
		strings.Contains(s, "accept"),
		strings.Contains(s, "schedul"),
		strings.Contains(s, "approved"):
		return StatusApproved
	case strings.Contains(s, "cancel"),
		strings.Contains(s, "reject"),
		strings.Contains(s, "declin"):
		return StatusRejected
	case strings.Contains(s, "complet"):
		return StatusCompleted
	default:
		return StatusPending
	}
}

// DisplayStatus derives the status shown to the user. An approved
// appointment whose date has passed displays as COMPLETED without any write;
// otherwise the stored status is shown unchanged.
func DisplayStatus(a Appointment, today Date) string {
	if a.Date.Before(today) && Normalize(a.Status) == StatusApproved {
		return "COMPLETED"
	}
	return a.Status
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another: Pending may be approved or rejected, Approved may complete,
// Rejected and Completed are terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusCompleted
	default:
		return false
	}
}

// ValidateTransition checks a raw-status transition and returns the
// normalized target on success.
func ValidateTransition(current, requested string) (Status, error) {
	from := Normalize(current)
	to := Normalize(requested)
	if from == to {
		// Idempotent re-apply of the same state is allowed; the status
		// update call is a plain PUT keyed by appointment id.
		return to, nil
	}
	if !CanTransition(from, to) {
		return "", fmt.Errorf("invalid status transition %s -> %s", from, to)
	}
	return to, nil
}
