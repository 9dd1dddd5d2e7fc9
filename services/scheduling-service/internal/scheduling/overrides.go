package scheduling

import (
	"context"
	"strings"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

type OverrideInput struct {
	Date        string
	IsAvailable bool
	// StartTime and EndTime are both set or both blank. A range is only
	// allowed when IsAvailable is true.
	StartTime string
	EndTime   string
}

// SetOverride creates or replaces the override of one date.
func (s *Service) SetOverride(ctx context.Context, eventTypeID string, in OverrideInput) (model.AvailabilityOverride, error) {
	eventTypeID = strings.TrimSpace(eventTypeID)
	if eventTypeID == "" {
		return model.AvailabilityOverride{}, apperr.Validation("id", "is required")
	}
	date, err := timeconv.ParseDate(in.Date)
	if err != nil {
		return model.AvailabilityOverride{}, err
	}
	ov := model.AvailabilityOverride{
		EventTypeID: eventTypeID,
		Date:        date,
		IsAvailable: in.IsAvailable,
	}

	startRaw, endRaw := strings.TrimSpace(in.StartTime), strings.TrimSpace(in.EndTime)
	switch {
	case startRaw == "" && endRaw == "":
	case startRaw == "" || endRaw == "":
		return model.AvailabilityOverride{}, apperr.Validation("start_time", "start_time and end_time must be given together")
	case !in.IsAvailable:
		return model.AvailabilityOverride{}, apperr.Validation("is_available", "a blocked date cannot carry a time range")
	default:
		if ov.StartTime, err = timeconv.ParseClock(startRaw); err != nil {
			return model.AvailabilityOverride{}, apperr.Validation("start_time", "must be HH:MM")
		}
		if ov.EndTime, err = timeconv.ParseClock(endRaw); err != nil {
			return model.AvailabilityOverride{}, apperr.Validation("end_time", "must be HH:MM")
		}
		if !ov.StartTime.Before(ov.EndTime) {
			return model.AvailabilityOverride{}, apperr.Validation("end_time", "must be after start_time")
		}
		ov.HasRange = true
	}
	return s.availability.UpsertOverride(ctx, ov)
}

// ListOverrides returns the overrides between from and to inclusive. Blank
// bounds are open.
func (s *Service) ListOverrides(ctx context.Context, eventTypeID, from, to string) ([]model.AvailabilityOverride, error) {
	et, err := s.GetEventType(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}
	var fromDate, toDate timeconv.Date
	if strings.TrimSpace(from) != "" {
		if fromDate, err = timeconv.ParseDate(from); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(to) != "" {
		if toDate, err = timeconv.ParseDate(to); err != nil {
			return nil, err
		}
	}
	if !fromDate.IsZero() && !toDate.IsZero() && toDate.Before(fromDate) {
		return nil, apperr.Validation("to", "must not be before from")
	}
	return s.availability.ListOverrides(ctx, et.ID, fromDate, toDate)
}

func (s *Service) DeleteOverride(ctx context.Context, eventTypeID, date string) error {
	eventTypeID = strings.TrimSpace(eventTypeID)
	if eventTypeID == "" {
		return apperr.Validation("id", "is required")
	}
	d, err := timeconv.ParseDate(date)
	if err != nil {
		return err
	}
	return s.availability.DeleteOverride(ctx, eventTypeID, d)
}
