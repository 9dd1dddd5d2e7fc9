package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/availability"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
)

func (s *Store) ListScheduledBetween(_ context.Context, eventTypeID string, from, to time.Time) ([]model.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Meeting
	for _, m := range s.meetings {
		if m.EventTypeID != eventTypeID || m.Status != model.MeetingScheduled {
			continue
		}
		if m.StartTime.Before(from) || !m.StartTime.Before(to) {
			continue
		}
		out = append(out, s.joined(m))
	}
	sortByStart(out)
	return out, nil
}

func (s *Store) CreateMeetingIfFree(_ context.Context, m model.Meeting) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.eventTypes[m.EventTypeID]; !ok {
		return model.Meeting{}, apperr.NotFound("event type %s not found", m.EventTypeID)
	}
	want := availability.Interval{Start: m.StartTime, End: m.EndTime}
	for _, existing := range s.meetings {
		if existing.EventTypeID != m.EventTypeID || existing.Status != model.MeetingScheduled {
			continue
		}
		if want.Overlaps(availability.Interval{Start: existing.StartTime, End: existing.EndTime}) {
			return model.Meeting{}, apperr.Conflict("slot already booked")
		}
	}

	m.ID = uuid.NewString()
	m.Status = model.MeetingScheduled
	m.CreatedAt = s.now().UTC()
	s.meetings[m.ID] = m
	return s.joined(m), nil
}

func (s *Store) GetMeeting(_ context.Context, id string) (model.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meetings[id]
	if !ok {
		return model.Meeting{}, apperr.NotFound("meeting %s not found", id)
	}
	return s.joined(m), nil
}

func (s *Store) ListMeetings(_ context.Context, f model.MeetingFilter) ([]model.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Meeting{}
	for _, m := range s.meetings {
		switch {
		case f.EventTypeID != "" && m.EventTypeID != f.EventTypeID:
			continue
		case f.Status != "" && m.Status != f.Status:
			continue
		case !f.From.IsZero() && m.StartTime.Before(f.From):
			continue
		case !f.To.IsZero() && !m.StartTime.Before(f.To):
			continue
		}
		out = append(out, s.joined(m))
	}
	sortByStart(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) CancelMeeting(_ context.Context, id string, at time.Time) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[id]
	if !ok {
		return model.Meeting{}, apperr.NotFound("meeting %s not found", id)
	}
	if m.Status != model.MeetingScheduled {
		return model.Meeting{}, apperr.Conflict("meeting is already %s", m.Status)
	}
	m.Status = model.MeetingCancelled
	m.CancelledAt = &at
	s.meetings[id] = m
	return s.joined(m), nil
}

func (s *Store) CompletePastMeetings(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, m := range s.meetings {
		if m.Status == model.MeetingScheduled && !m.EndTime.After(before) {
			m.Status = model.MeetingCompleted
			s.meetings[id] = m
			n++
		}
	}
	return n, nil
}

// joined fills the event type name and slug. Callers hold s.mu.
func (s *Store) joined(m model.Meeting) model.Meeting {
	if et, ok := s.eventTypes[m.EventTypeID]; ok {
		m.EventTypeName = et.Name
		m.EventTypeSlug = et.Slug
	}
	return m
}

func sortByStart(ms []model.Meeting) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].StartTime.Equal(ms[j].StartTime) {
			return ms[i].StartTime.Before(ms[j].StartTime)
		}
		return ms[i].ID < ms[j].ID
	})
}
