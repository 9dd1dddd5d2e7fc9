package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/availability"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

type SlotQuery struct {
	EventSlug string
	// Date is a civil YYYY-MM-DD read in Timezone.
	Date string
	// Timezone is the viewer's zone. Blank means the default zone.
	Timezone string
}

// GenerateSlots lists the bookable intervals of an event type on one civil
// date, rendered in the viewer's zone and ordered by start then end.
//
// The weekday that selects weekly rules is computed in the viewer's zone even
// though each rule is anchored in its own zone. Overlapping rules may produce
// duplicate slots; they are not merged.
func (s *Service) GenerateSlots(ctx context.Context, q SlotQuery) (slots []model.Slot, err error) {
	ctx, span := s.startSpan(ctx, "GenerateSlots")
	defer func() { s.endSpan(span, "generate_slots", err) }()

	slug := strings.ToLower(strings.TrimSpace(q.EventSlug))
	if slug == "" {
		return nil, apperr.Validation("event", "is required")
	}
	date, err := timeconv.ParseDate(q.Date)
	if err != nil {
		return nil, err
	}
	zoneName, viewer, err := s.zone(strings.TrimSpace(q.Timezone))
	if err != nil {
		return nil, err
	}

	et, err := s.eventTypes.GetEventTypeBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	rules, err := s.availability.ListRules(ctx, et.ID)
	if err != nil {
		return nil, err
	}
	weekday := timeconv.Weekday(date, viewer)
	var todays []model.AvailabilityRule
	for _, r := range rules {
		if r.DayOfWeek == weekday {
			todays = append(todays, r)
		}
	}
	if len(todays) == 0 {
		return []model.Slot{}, nil
	}

	windows, err := s.effectiveWindows(ctx, et.ID, date, viewer, todays)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []model.Slot{}, nil
	}

	dayStart, dayEnd := timeconv.DayWindow(date, viewer)
	meetings, err := s.bookings.ListScheduledBetween(ctx, et.ID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	busy := make([]availability.Interval, 0, len(meetings))
	for _, m := range meetings {
		busy = append(busy, availability.Interval{Start: m.StartTime, End: m.EndTime})
	}

	now := s.now().UTC()
	duration := et.Duration()
	var found []availability.Interval
	for _, w := range windows {
		found = append(found, availability.AvailableSlots(w.Start, w.End, duration, duration, busy, now)...)
	}
	availability.Sort(found)

	slots = make([]model.Slot, 0, len(found))
	for _, iv := range found {
		slots = append(slots, model.Slot{
			Start:    timeconv.FormatCivil(iv.Start, viewer),
			End:      timeconv.FormatCivil(iv.End, viewer),
			Timezone: zoneName,
		})
	}
	return slots, nil
}

// effectiveWindows applies the date's override, if any, to the weekly rules.
// A blocking override yields no windows. An available override with a range
// replaces the rules with that range read in the viewer's zone.
func (s *Service) effectiveWindows(ctx context.Context, eventTypeID string, date timeconv.Date, viewer *time.Location, rules []model.AvailabilityRule) ([]availability.Interval, error) {
	ov, ok, err := s.availability.GetOverride(ctx, eventTypeID, date)
	if err != nil {
		return nil, err
	}
	if ok && !ov.IsAvailable {
		return nil, nil
	}
	if ok && ov.HasRange {
		return []availability.Interval{{
			Start: timeconv.ToUTC(date, ov.StartTime, viewer),
			End:   timeconv.ToUTC(date, ov.EndTime, viewer),
		}}, nil
	}

	windows := make([]availability.Interval, 0, len(rules))
	for _, r := range rules {
		loc, err := timeconv.LoadZone(r.Timezone)
		if err != nil {
			return nil, err
		}
		windows = append(windows, availability.Interval{
			Start: timeconv.ToUTC(date, r.StartTime, loc),
			End:   timeconv.ToUTC(date, r.EndTime, loc),
		})
	}
	return windows, nil
}
