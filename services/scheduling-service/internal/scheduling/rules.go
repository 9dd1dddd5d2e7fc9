package scheduling

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

// RuleInput is one weekly window. DayOfWeek is 0 (Sunday) through 6; nil means
// the field was not supplied.
type RuleInput struct {
	DayOfWeek *int
	StartTime string
	EndTime   string
	Timezone  string
}

func (s *Service) GetAvailability(ctx context.Context, eventTypeID string) ([]model.AvailabilityRule, error) {
	et, err := s.GetEventType(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}
	rules, err := s.availability.ListRules(ctx, et.ID)
	if err != nil {
		return nil, err
	}
	SortRules(rules)
	return rules, nil
}

// SaveAvailability replaces the full weekly rule set of an event type. Every
// row is validated before anything is written and the replacement is atomic,
// so a bad row leaves the previous set untouched.
func (s *Service) SaveAvailability(ctx context.Context, eventTypeID string, in []RuleInput) (rules []model.AvailabilityRule, err error) {
	ctx, span := s.startSpan(ctx, "SaveAvailability")
	defer func() { s.endSpan(span, "save_availability", err) }()

	eventTypeID = strings.TrimSpace(eventTypeID)
	if eventTypeID == "" {
		return nil, apperr.Validation("id", "is required")
	}

	rules = make([]model.AvailabilityRule, 0, len(in))
	seen := make(map[string]int, len(in))
	for i, r := range in {
		rule, err := s.validateRule(i, r)
		if err != nil {
			return nil, err
		}
		rule.EventTypeID = eventTypeID
		key := fmt.Sprintf("%d|%s|%s", rule.DayOfWeek, rule.StartTime, rule.EndTime)
		if prev, dup := seen[key]; dup {
			return nil, apperr.Validation(fmt.Sprintf("rules[%d]", i), "duplicates rules[%d]", prev)
		}
		seen[key] = i
		rules = append(rules, rule)
	}

	saved, err := s.availability.ReplaceRules(ctx, eventTypeID, rules)
	if err != nil {
		return nil, err
	}
	SortRules(saved)
	s.logger.Info("availability replaced", "event_type_id", eventTypeID, "rules", len(saved))
	return saved, nil
}

func (s *Service) validateRule(i int, r RuleInput) (model.AvailabilityRule, error) {
	field := func(name string) string { return fmt.Sprintf("rules[%d].%s", i, name) }

	if r.DayOfWeek == nil {
		return model.AvailabilityRule{}, apperr.Validation(field("day_of_week"), "is required")
	}
	if *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
		return model.AvailabilityRule{}, apperr.Validation(field("day_of_week"), "must be 0 (Sunday) through 6")
	}
	if strings.TrimSpace(r.StartTime) == "" {
		return model.AvailabilityRule{}, apperr.Validation(field("start_time"), "is required")
	}
	if strings.TrimSpace(r.EndTime) == "" {
		return model.AvailabilityRule{}, apperr.Validation(field("end_time"), "is required")
	}
	start, err := timeconv.ParseClock(r.StartTime)
	if err != nil {
		return model.AvailabilityRule{}, apperr.Validation(field("start_time"), "must be HH:MM")
	}
	end, err := timeconv.ParseClock(r.EndTime)
	if err != nil {
		return model.AvailabilityRule{}, apperr.Validation(field("end_time"), "must be HH:MM")
	}
	if !start.Before(end) {
		return model.AvailabilityRule{}, apperr.Validation(field("end_time"), "must be after start_time")
	}
	zoneName, _, err := s.zone(strings.TrimSpace(r.Timezone))
	if err != nil {
		return model.AvailabilityRule{}, err
	}
	return model.AvailabilityRule{
		DayOfWeek: time.Weekday(*r.DayOfWeek),
		StartTime: start,
		EndTime:   end,
		Timezone:  zoneName,
	}, nil
}

// SortRules orders rules by day of week, then start and end time.
func SortRules(rules []model.AvailabilityRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c < 0
		}
		return a.EndTime.Before(b.EndTime)
	})
}
