package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

func (s *Store) ListRules(_ context.Context, eventTypeID string) ([]model.AvailabilityRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.AvailabilityRule(nil), s.rules[eventTypeID]...), nil
}

func (s *Store) ReplaceRules(_ context.Context, eventTypeID string, rules []model.AvailabilityRule) ([]model.AvailabilityRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.eventTypes[eventTypeID]; !ok {
		return nil, apperr.NotFound("event type %s not found", eventTypeID)
	}
	saved := make([]model.AvailabilityRule, 0, len(rules))
	for _, r := range rules {
		r.ID = uuid.NewString()
		r.EventTypeID = eventTypeID
		saved = append(saved, r)
	}
	s.rules[eventTypeID] = saved
	return append([]model.AvailabilityRule(nil), saved...), nil
}

func (s *Store) GetOverride(_ context.Context, eventTypeID string, date timeconv.Date) (model.AvailabilityOverride, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ov, ok := s.overrides[eventTypeID][date]
	return ov, ok, nil
}

func (s *Store) ListOverrides(_ context.Context, eventTypeID string, from, to timeconv.Date) ([]model.AvailabilityOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.AvailabilityOverride{}
	for d, ov := range s.overrides[eventTypeID] {
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && to.Before(d) {
			continue
		}
		out = append(out, ov)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) UpsertOverride(_ context.Context, ov model.AvailabilityOverride) (model.AvailabilityOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.eventTypes[ov.EventTypeID]; !ok {
		return model.AvailabilityOverride{}, apperr.NotFound("event type %s not found", ov.EventTypeID)
	}
	byDate := s.overrides[ov.EventTypeID]
	if byDate == nil {
		byDate = make(map[timeconv.Date]model.AvailabilityOverride)
		s.overrides[ov.EventTypeID] = byDate
	}
	if existing, ok := byDate[ov.Date]; ok {
		ov.ID = existing.ID
	} else {
		ov.ID = uuid.NewString()
	}
	byDate[ov.Date] = ov
	return ov, nil
}

func (s *Store) DeleteOverride(_ context.Context, eventTypeID string, date timeconv.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.overrides[eventTypeID][date]; !ok {
		return apperr.NotFound("no override for %s on %s", eventTypeID, date)
	}
	delete(s.overrides[eventTypeID], date)
	return nil
}
