package services

import (
	"time"

	"github.com/google/uuid"
)

// Viewer is whoever is looking at or acting on the schedule. The zero value
// is an anonymous visitor.
type Viewer struct {
	UserID        uuid.UUID
	Authenticated bool
}

func AuthenticatedViewer(userID uuid.UUID) Viewer {
	return Viewer{UserID: userID, Authenticated: true}
}

type CheckInOutcome string

const (
	OutcomeBooked          CheckInOutcome = "booked"
	OutcomeAlreadyBooked   CheckInOutcome = "already_booked"
	OutcomeConflict        CheckInOutcome = "conflict"
	OutcomeFull            CheckInOutcome = "full"
	OutcomeUnauthenticated CheckInOutcome = "unauthenticated"
	OutcomeFailed          CheckInOutcome = "failed"
)

// CheckInResult says what happened to a booking attempt. ConflictClassID is
// only set for OutcomeConflict and names the class already held that day.
type CheckInResult struct {
	Outcome         CheckInOutcome `json:"outcome"`
	ConflictClassID string         `json:"conflict_class_id,omitempty"`
}

// Booked is true when the viewer holds the class after the call.
func (r CheckInResult) Booked() bool {
	return r.Outcome == OutcomeBooked || r.Outcome == OutcomeAlreadyBooked
}

// CalendarDay drops the time of day from t as seen in t's own location and
// returns that civil date at UTC midnight.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay reads a YYYY-MM-DD value as a civil date.
func ParseDay(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, value)
}
