package scheduling

import (
	"context"
	"time"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

// Stores return *apperr.Error values: NotFound for a missing event type or
// meeting, Conflict for uniqueness violations, Storage for everything else.

type EventTypeStore interface {
	CreateEventType(ctx context.Context, et model.EventType) (model.EventType, error)
	GetEventType(ctx context.Context, id string) (model.EventType, error)
	GetEventTypeBySlug(ctx context.Context, slug string) (model.EventType, error)
	ListEventTypes(ctx context.Context) ([]model.EventType, error)
	UpdateEventType(ctx context.Context, et model.EventType) (model.EventType, error)
	// DeleteEventType removes the event type with its rules, overrides and meetings.
	DeleteEventType(ctx context.Context, id string) error
}

type AvailabilityStore interface {
	ListRules(ctx context.Context, eventTypeID string) ([]model.AvailabilityRule, error)
	// ReplaceRules deletes every rule of the event type and inserts rules in one
	// transaction. Readers never observe an intermediate state.
	ReplaceRules(ctx context.Context, eventTypeID string, rules []model.AvailabilityRule) ([]model.AvailabilityRule, error)

	GetOverride(ctx context.Context, eventTypeID string, date timeconv.Date) (model.AvailabilityOverride, bool, error)
	// ListOverrides returns overrides with from <= date <= to. A zero bound is open.
	ListOverrides(ctx context.Context, eventTypeID string, from, to timeconv.Date) ([]model.AvailabilityOverride, error)
	UpsertOverride(ctx context.Context, ov model.AvailabilityOverride) (model.AvailabilityOverride, error)
	DeleteOverride(ctx context.Context, eventTypeID string, date timeconv.Date) error
}

type BookingStore interface {
	// ListScheduledBetween returns scheduled meetings whose start lies in [from, to).
	ListScheduledBetween(ctx context.Context, eventTypeID string, from, to time.Time) ([]model.Meeting, error)
	// CreateMeetingIfFree inserts m unless a scheduled meeting of the same event
	// type overlaps it, in which case it returns a Conflict. The check and the
	// insert are a single atomic step.
	CreateMeetingIfFree(ctx context.Context, m model.Meeting) (model.Meeting, error)
	GetMeeting(ctx context.Context, id string) (model.Meeting, error)
	ListMeetings(ctx context.Context, filter model.MeetingFilter) ([]model.Meeting, error)
	// CancelMeeting moves a scheduled meeting to cancelled. Any other status is
	// a Conflict.
	CancelMeeting(ctx context.Context, id string, at time.Time) (model.Meeting, error)
	// CompletePastMeetings marks scheduled meetings ending at or before the
	// given instant as completed and reports how many changed.
	CompletePastMeetings(ctx context.Context, before time.Time) (int, error)
}
