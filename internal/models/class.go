package models

import (
	"time"

	"github.com/google/uuid"
)

type Program struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassSession is one scheduled occurrence as edited by the schedule editor.
// StartTime and EndTime are wall-clock "HH:MM" values on Date.
type ClassSession struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	MaxCapacity int       `json:"max_capacity"`
	ProgramID   uuid.UUID `json:"program_id"`
	CoachID     uuid.UUID `json:"coach_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClassListItem is the read-time projection of a class for one viewer.
// SpotsLeft is MaxCapacity - AttendeeCount and goes negative when overbooked.
type ClassListItem struct {
	ID            string    `json:"id"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	ProgramName   string    `json:"program_name"`
	CoachName     string    `json:"coach_name"`
	CoachAvatar   *string   `json:"coach_avatar,omitempty"`
	MaxCapacity   int       `json:"max_capacity"`
	AttendeeCount int       `json:"attendee_count"`
	SpotsLeft     int       `json:"spots_left"`
	IsCheckedIn   bool      `json:"is_checked_in"`
}

const (
	SourceLive = "live"
	SourceDemo = "demo"
)

// ClassListing wraps the classes of one calendar day. Degraded is set when the
// backend could not be read; Source tells whether the rows are real or synthetic.
type ClassListing struct {
	Date     string          `json:"date"`
	Classes  []ClassListItem `json:"classes"`
	Source   string          `json:"source"`
	Degraded bool            `json:"degraded"`
}

type Attendee struct {
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type ClassDetail struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	ProgramName   string    `json:"program_name"`
	CoachName     string    `json:"coach_name"`
	CoachAvatar   *string   `json:"coach_avatar,omitempty"`
	MaxCapacity   int       `json:"max_capacity"`
	AttendeeCount int       `json:"attendee_count"`
	SpotsLeft     int       `json:"spots_left"`
	IsCheckedIn   bool      `json:"is_checked_in"`
}

type ClassDetailView struct {
	Class     ClassDetail `json:"class"`
	Attendees []Attendee  `json:"attendees"`
	Source    string      `json:"source"`
	Degraded  bool        `json:"degraded"`
}

// RosterUpdate is pushed to live subscribers after a roster mutation.
type RosterUpdate struct {
	ClassID       string `json:"class_id"`
	Date          string `json:"date"`
	AttendeeCount int    `json:"attendee_count"`
	SpotsLeft     int    `json:"spots_left"`
}
