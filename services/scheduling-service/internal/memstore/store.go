// Package memstore keeps scheduling data in process memory. It backs the
// service when no database is configured and in tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

// Store implements the event type, availability and booking stores. A single
// mutex serialises writers, which makes the booking check-and-insert atomic.
type Store struct {
	mu         sync.RWMutex
	eventTypes map[string]model.EventType
	rules      map[string][]model.AvailabilityRule
	overrides  map[string]map[timeconv.Date]model.AvailabilityOverride
	meetings   map[string]model.Meeting

	now func() time.Time
}

func New() *Store {
	return &Store{
		eventTypes: make(map[string]model.EventType),
		rules:      make(map[string][]model.AvailabilityRule),
		overrides:  make(map[string]map[timeconv.Date]model.AvailabilityOverride),
		meetings:   make(map[string]model.Meeting),
		now:        time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateEventType(_ context.Context, et model.EventType) (model.EventType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugTaken(et.Slug, "") {
		return model.EventType{}, apperr.Conflict("slug %q is already in use", et.Slug)
	}
	now := s.now().UTC()
	et.ID = uuid.NewString()
	et.CreatedAt = now
	et.UpdatedAt = now
	s.eventTypes[et.ID] = et
	return et, nil
}

func (s *Store) GetEventType(_ context.Context, id string) (model.EventType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	et, ok := s.eventTypes[id]
	if !ok {
		return model.EventType{}, apperr.NotFound("event type %s not found", id)
	}
	return et, nil
}

func (s *Store) GetEventTypeBySlug(_ context.Context, slug string) (model.EventType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, et := range s.eventTypes {
		if et.Slug == slug {
			return et, nil
		}
	}
	return model.EventType{}, apperr.NotFound("event type %q not found", slug)
}

func (s *Store) ListEventTypes(context.Context) ([]model.EventType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.EventType, 0, len(s.eventTypes))
	for _, et := range s.eventTypes {
		out = append(out, et)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (s *Store) UpdateEventType(_ context.Context, et model.EventType) (model.EventType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.eventTypes[et.ID]
	if !ok {
		return model.EventType{}, apperr.NotFound("event type %s not found", et.ID)
	}
	if s.slugTaken(et.Slug, et.ID) {
		return model.EventType{}, apperr.Conflict("slug %q is already in use", et.Slug)
	}
	et.CreatedAt = existing.CreatedAt
	et.UpdatedAt = s.now().UTC()
	s.eventTypes[et.ID] = et
	return et, nil
}

func (s *Store) DeleteEventType(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.eventTypes[id]; !ok {
		return apperr.NotFound("event type %s not found", id)
	}
	delete(s.eventTypes, id)
	delete(s.rules, id)
	delete(s.overrides, id)
	for mid, m := range s.meetings {
		if m.EventTypeID == id {
			delete(s.meetings, mid)
		}
	}
	return nil
}

func (s *Store) slugTaken(slug, exceptID string) bool {
	for _, et := range s.eventTypes {
		if et.Slug == slug && et.ID != exceptID {
			return true
		}
	}
	return false
}
