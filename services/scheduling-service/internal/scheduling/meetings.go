package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
)

const (
	DefaultMeetingLimit = 50
	MaxMeetingLimit     = 200
)

func (s *Service) GetMeeting(ctx context.Context, id string) (model.Meeting, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Meeting{}, apperr.Validation("id", "is required")
	}
	return s.bookings.GetMeeting(ctx, id)
}

// ListMeetings returns meetings ordered by start time.
func (s *Service) ListMeetings(ctx context.Context, filter model.MeetingFilter) ([]model.Meeting, error) {
	switch filter.Status {
	case "", model.MeetingScheduled, model.MeetingCancelled, model.MeetingCompleted:
	default:
		return nil, apperr.Validation("status", "must be scheduled, cancelled or completed")
	}
	switch {
	case filter.Limit < 0 || filter.Limit > MaxMeetingLimit:
		return nil, apperr.Validation("limit", "must be between 1 and %d", MaxMeetingLimit)
	case filter.Limit == 0:
		filter.Limit = DefaultMeetingLimit
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.To.After(filter.From) {
		return nil, apperr.Validation("to", "must be after from")
	}
	return s.bookings.ListMeetings(ctx, filter)
}

// ScheduledMeetings returns every scheduled meeting of an event type ordered
// by start, paging through the store MaxMeetingLimit rows at a time.
// Scheduled meetings of one event type never overlap, so their start times
// are distinct and each page resumes just after the last start seen.
func (s *Service) ScheduledMeetings(ctx context.Context, eventTypeID string) ([]model.Meeting, error) {
	et, err := s.GetEventType(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}
	filter := model.MeetingFilter{
		EventTypeID: et.ID,
		Status:      model.MeetingScheduled,
		Limit:       MaxMeetingLimit,
	}
	out := []model.Meeting{}
	for {
		page, err := s.bookings.ListMeetings(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < filter.Limit {
			return out, nil
		}
		// Timestamps are stored with microsecond precision.
		filter.From = page[len(page)-1].StartTime.Add(time.Microsecond)
	}
}

// CancelMeeting moves a scheduled meeting to cancelled. Cancelling a meeting
// that is already cancelled or completed is a Conflict, not a no-op.
func (s *Service) CancelMeeting(ctx context.Context, id string) (m model.Meeting, err error) {
	ctx, span := s.startSpan(ctx, "CancelMeeting")
	defer func() { s.endSpan(span, "cancel_meeting", err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return model.Meeting{}, apperr.Validation("id", "is required")
	}
	m, err = s.bookings.CancelMeeting(ctx, id, s.now().UTC())
	if err != nil {
		return model.Meeting{}, err
	}
	s.logger.Info("meeting cancelled", "meeting_id", m.ID, "event_type_id", m.EventTypeID)
	return m, nil
}

// CompletePastMeetings marks every scheduled meeting that has ended as
// completed.
func (s *Service) CompletePastMeetings(ctx context.Context) (n int, err error) {
	ctx, span := s.startSpan(ctx, "CompletePastMeetings")
	defer func() { s.endSpan(span, "complete_past_meetings", err) }()

	n, err = s.bookings.CompletePastMeetings(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("meetings completed", "count", n)
	}
	return n, nil
}
