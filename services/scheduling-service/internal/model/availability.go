package model

import (
	"time"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

// AvailabilityRule is a recurring weekly window. StartTime and EndTime are
// read in Timezone.
type AvailabilityRule struct {
	ID          string
	EventTypeID string
	DayOfWeek   time.Weekday
	StartTime   timeconv.Clock
	EndTime     timeconv.Clock
	Timezone    string
}

// AvailabilityOverride replaces or blocks the weekly rules for one date.
// HasRange is set when both StartTime and EndTime are present.
type AvailabilityOverride struct {
	ID          string
	EventTypeID string
	Date        timeconv.Date
	IsAvailable bool
	HasRange    bool
	StartTime   timeconv.Clock
	EndTime     timeconv.Clock
}
