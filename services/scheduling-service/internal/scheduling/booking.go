package scheduling

import (
	"context"
	"errors"
	"strings"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

type BookingRequest struct {
	EventSlug    string
	InviteeName  string
	InviteeEmail string
	// StartTime is RFC 3339, or a civil datetime read in Timezone.
	StartTime string
	Timezone  string
}

func (r BookingRequest) normalize() (BookingRequest, error) {
	r.EventSlug = strings.ToLower(strings.TrimSpace(r.EventSlug))
	r.InviteeName = strings.TrimSpace(r.InviteeName)
	r.InviteeEmail = strings.TrimSpace(r.InviteeEmail)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.Timezone = strings.TrimSpace(r.Timezone)
	switch {
	case r.EventSlug == "":
		return r, apperr.Validation("event", "is required")
	case r.InviteeName == "":
		return r, apperr.Validation("invitee_name", "is required")
	case r.InviteeEmail == "":
		return r, apperr.Validation("invitee_email", "is required")
	case r.StartTime == "":
		return r, apperr.Validation("start_time", "is required")
	}
	return r, nil
}

// Book creates a scheduled meeting for the requested start. The overlap check
// and the insert run as one atomic step in the booking store, so of two
// concurrent requests for overlapping intervals at most one succeeds; the
// other gets a Conflict.
func (s *Service) Book(ctx context.Context, req BookingRequest) (m model.Meeting, err error) {
	ctx, span := s.startSpan(ctx, "Book")
	defer func() { s.endSpan(span, "book", err) }()

	req, err = req.normalize()
	if err != nil {
		return model.Meeting{}, err
	}
	zoneName, loc, err := s.zone(req.Timezone)
	if err != nil {
		return model.Meeting{}, err
	}
	start, err := timeconv.ParseDateTime(req.StartTime, loc)
	if err != nil {
		return model.Meeting{}, err
	}

	et, err := s.eventTypes.GetEventTypeBySlug(ctx, req.EventSlug)
	if err != nil {
		return model.Meeting{}, err
	}

	start = start.UTC()
	created, err := s.bookings.CreateMeetingIfFree(ctx, model.Meeting{
		EventTypeID:  et.ID,
		InviteeName:  req.InviteeName,
		InviteeEmail: req.InviteeEmail,
		StartTime:    start,
		EndTime:      start.Add(et.Duration()),
		Timezone:     zoneName,
		Status:       model.MeetingScheduled,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.logger.Info("booking conflict", "event_type_id", et.ID, "start_time", start)
		}
		return model.Meeting{}, err
	}
	created.EventTypeName = et.Name
	created.EventTypeSlug = et.Slug
	s.logger.Info("meeting scheduled", "meeting_id", created.ID, "event_type_id", et.ID, "start_time", start)
	return created, nil
}
