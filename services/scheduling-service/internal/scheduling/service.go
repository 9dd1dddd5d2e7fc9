// Package scheduling holds the booking core: slot generation, the booking
// transaction and availability management.
package scheduling

import (
	"context"
	"log/slog"
	"time"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultTimezone = "UTC"

type Service struct {
	eventTypes   EventTypeStore
	availability AvailabilityStore
	bookings     BookingStore
	logger       *slog.Logger
	tracer       trace.Tracer

	now         func() time.Time
	defaultZone string
}

type Option func(*Service)

// WithClock replaces time.Now for past filtering and cancellation stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaultTimezone sets the zone used when a request or rule omits one.
func WithDefaultTimezone(name string) Option {
	return func(s *Service) { s.defaultZone = name }
}

func New(eventTypes EventTypeStore, availability AvailabilityStore, bookings BookingStore, logger *slog.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		eventTypes:   eventTypes,
		availability: availability,
		bookings:     bookings,
		logger:       logger,
		tracer:       otel.Tracer("scheduling-service/scheduling"),
		now:          time.Now,
		defaultZone:  DefaultTimezone,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := timeconv.LoadZone(s.defaultZone); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) DefaultTimezone() string { return s.defaultZone }

// zone resolves name, falling back to the default zone when it is blank.
func (s *Service) zone(name string) (string, *time.Location, error) {
	if name == "" {
		name = s.defaultZone
	}
	loc, err := timeconv.LoadZone(name)
	if err != nil {
		return "", nil, err
	}
	return name, loc, nil
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "scheduling."+name)
}

// endSpan records err on span and logs storage failures.
func (s *Service) endSpan(span trace.Span, op string, err error) {
	defer span.End()
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(apperr.KindOf(err)))
	if apperr.KindOf(err) == apperr.KindStorage {
		s.logger.Error("storage failure", "op", op, "err", err)
	}
}
