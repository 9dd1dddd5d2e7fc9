package scheduling

import (
	"context"
	"regexp"
	"strings"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
)

const (
	maxSlugLength   = 100
	maxNameLength   = 200
	maxDurationMins = 24 * 60
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

type EventTypeInput struct {
	Name            string
	Slug            string
	DurationMinutes int
	Description     string
	Color           string
}

func (in EventTypeInput) normalize() (model.EventType, error) {
	et := model.EventType{
		Name:            strings.TrimSpace(in.Name),
		Slug:            strings.ToLower(strings.TrimSpace(in.Slug)),
		DurationMinutes: in.DurationMinutes,
		Description:     strings.TrimSpace(in.Description),
		Color:           strings.TrimSpace(in.Color),
	}
	switch {
	case et.Name == "":
		return et, apperr.Validation("name", "is required")
	case len(et.Name) > maxNameLength:
		return et, apperr.Validation("name", "must be at most %d characters", maxNameLength)
	case et.Slug == "":
		return et, apperr.Validation("slug", "is required")
	case len(et.Slug) > maxSlugLength || !slugPattern.MatchString(et.Slug):
		return et, apperr.Validation("slug", "must be lowercase letters, digits and single dashes (max %d)", maxSlugLength)
	case et.DurationMinutes < 1 || et.DurationMinutes > maxDurationMins:
		return et, apperr.Validation("duration_minutes", "must be between 1 and %d", maxDurationMins)
	case et.Color != "" && !colorPattern.MatchString(et.Color):
		return et, apperr.Validation("color", "must be #RRGGBB")
	}
	return et, nil
}

func (s *Service) CreateEventType(ctx context.Context, in EventTypeInput) (model.EventType, error) {
	et, err := in.normalize()
	if err != nil {
		return model.EventType{}, err
	}
	return s.eventTypes.CreateEventType(ctx, et)
}

func (s *Service) GetEventType(ctx context.Context, id string) (model.EventType, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.EventType{}, apperr.Validation("id", "is required")
	}
	return s.eventTypes.GetEventType(ctx, id)
}

func (s *Service) GetEventTypeBySlug(ctx context.Context, slug string) (model.EventType, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return model.EventType{}, apperr.Validation("event", "is required")
	}
	return s.eventTypes.GetEventTypeBySlug(ctx, slug)
}

func (s *Service) ListEventTypes(ctx context.Context) ([]model.EventType, error) {
	return s.eventTypes.ListEventTypes(ctx)
}

// UpdateEventType rewrites every field. Meetings already booked keep their
// stored end time when the duration changes.
func (s *Service) UpdateEventType(ctx context.Context, id string, in EventTypeInput) (model.EventType, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.EventType{}, apperr.Validation("id", "is required")
	}
	et, err := in.normalize()
	if err != nil {
		return model.EventType{}, err
	}
	et.ID = id
	return s.eventTypes.UpdateEventType(ctx, et)
}

func (s *Service) DeleteEventType(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.Validation("id", "is required")
	}
	return s.eventTypes.DeleteEventType(ctx, id)
}
