package model

import (
	"time"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

const (
	MeetingScheduled = "scheduled"
	MeetingCancelled = "cancelled"
	MeetingCompleted = "completed"
)

// Meeting stores absolute UTC instants. Timezone is the viewer's zone at
// booking time and is only used for display.
type Meeting struct {
	ID            string
	EventTypeID   string
	EventTypeName string
	EventTypeSlug string
	InviteeName   string
	InviteeEmail  string
	StartTime     time.Time
	EndTime       time.Time
	Timezone      string
	Status        string
	CancelledAt   *time.Time
	CreatedAt     time.Time
}

// LocalStart returns StartTime in the meeting's recorded zone. An unknown zone
// falls back to UTC.
func (m Meeting) LocalStart() time.Time {
	return m.StartTime.In(m.location())
}

func (m Meeting) LocalEnd() time.Time {
	return m.EndTime.In(m.location())
}

func (m Meeting) location() *time.Location {
	loc, err := timeconv.LoadZone(m.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MeetingFilter narrows ListMeetings. Zero fields are ignored. From and To
// bound start_time as [From, To).
type MeetingFilter struct {
	EventTypeID string
	Status      string
	From        time.Time
	To          time.Time
	Limit       int
}

// Slot is a bookable interval rendered as civil datetimes in Timezone.
type Slot struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}
