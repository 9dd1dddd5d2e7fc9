package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookCreatesScheduledMeeting(t *testing.T) {
	f := newFixture(t, beforeMonday)
	m, err := f.svc.Book(context.Background(), BookingRequest{
		EventSlug:    " 30-min ",
		InviteeName:  " Ada Lovelace ",
		InviteeEmail: "ada@example.com",
		StartTime:    "2024-06-10T09:00:00",
		Timezone:     "America/New_York",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, model.MeetingScheduled, m.Status)
	assert.Equal(t, "Ada Lovelace", m.InviteeName)
	assert.Equal(t, "30 minute call", m.EventTypeName)
	assert.Equal(t, "30-min", m.EventTypeSlug)
	assert.Equal(t, time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC), m.StartTime)
	assert.Equal(t, 30*time.Minute, m.EndTime.Sub(m.StartTime))
	assert.Equal(t, time.UTC, m.StartTime.Location())
}

func TestBookRoundTripsCivilTime(t *testing.T) {
	f := newFixture(t, beforeMonday)
	for _, tc := range []struct{ start, zone string }{
		{"2024-06-10T09:00:00", "America/New_York"},
		{"2024-06-10T23:30:00", "Asia/Kolkata"},
		{"2024-11-03T00:30:00", "America/Chicago"},
		{"2024-06-10T09:00:00", "UTC"},
	} {
		m, err := f.svc.Book(context.Background(), BookingRequest{
			EventSlug: "30-min", InviteeName: "Ada", InviteeEmail: "ada@example.com",
			StartTime: tc.start, Timezone: tc.zone,
		})
		require.NoError(t, err, tc.zone)

		stored, err := f.svc.GetMeeting(context.Background(), m.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.start, stored.LocalStart().Format(timeconv.CivilLayout), tc.zone)
		loc, err := timeconv.LoadZone(tc.zone)
		require.NoError(t, err)
		assert.Equal(t, tc.start, timeconv.FormatCivil(stored.StartTime, loc), tc.zone)
	}
}

func TestBookAcceptsOffsetTimestamps(t *testing.T) {
	f := newFixture(t, beforeMonday)
	m, err := f.svc.Book(context.Background(), BookingRequest{
		EventSlug: "30-min", InviteeName: "Ada", InviteeEmail: "ada@example.com",
		StartTime: "2024-06-10T09:00:00+02:00", Timezone: "Europe/Berlin",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC), m.StartTime)
}

func TestBookOverlapIsConflict(t *testing.T) {
	f := newFixture(t, beforeMonday)
	ctx := context.Background()
	book := func(start string) error {
		_, err := f.svc.Book(ctx, BookingRequest{
			EventSlug: "30-min", InviteeName: "Ada", InviteeEmail: "ada@example.com",
			StartTime: start, Timezone: "UTC",
		})
		return err
	}

	require.NoError(t, book("2024-06-10T09:00:00"))
	assert.True(t, errors.Is(book("2024-06-10T09:00:00"), apperr.ErrConflict))
	assert.True(t, errors.Is(book("2024-06-10T09:15:00"), apperr.ErrConflict))
	assert.True(t, errors.Is(book("2024-06-10T08:45:00"), apperr.ErrConflict))
	// Touching boundaries on either side do not conflict.
	require.NoError(t, book("2024-06-10T09:30:00"))
	require.NoError(t, book("2024-06-10T08:30:00"))
}

func TestBookConcurrentSameSlot(t *testing.T) {
	f := newFixture(t, beforeMonday)
	const attempts = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Book(context.Background(), BookingRequest{
				EventSlug: "30-min", InviteeName: "Ada", InviteeEmail: "ada@example.com",
				StartTime: "2024-06-10T09:00:00", Timezone: "UTC",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperr.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t, beforeMonday)
	ctx := context.Background()
	valid := BookingRequest{EventSlug: "30-min", InviteeName: "Ada", InviteeEmail: "ada@example.com", StartTime: "2024-06-10T09:00:00", Timezone: "UTC"}

	for name, mutate := range map[string]func(*BookingRequest){
		"name":  func(r *BookingRequest) { r.InviteeName = "  " },
		"email": func(r *BookingRequest) { r.InviteeEmail = "" },
		"start": func(r *BookingRequest) { r.StartTime = "" },
		"bad":   func(r *BookingRequest) { r.StartTime = "9am" },
		"slug":  func(r *BookingRequest) { r.EventSlug = "" },
	} {
		req := valid
		mutate(&req)
		_, err := f.svc.Book(ctx, req)
		assert.True(t, errors.Is(err, apperr.ErrValidation), name)
	}

	req := valid
	req.Timezone = "Atlantis/Central"
	_, err := f.svc.Book(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrInvalidTimezone))

	req = valid
	req.EventSlug = "unknown"
	_, err = f.svc.Book(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCancelMeeting(t *testing.T) {
	f := newFixture(t, beforeMonday)
	ctx := context.Background()
	m, err := f.svc.Book(ctx, BookingRequest{
		EventSlug: "30-min", InviteeName: "Ada", InviteeEmail: "ada@example.com",
		StartTime: "2024-06-10T09:00:00", Timezone: "UTC",
	})
	require.NoError(t, err)

	cancelled, err := f.svc.CancelMeeting(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MeetingCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, beforeMonday, *cancelled.CancelledAt)

	_, err = f.svc.CancelMeeting(ctx, m.ID)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, err = f.svc.CancelMeeting(ctx, "does-not-exist")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCompletePastMeetings(t *testing.T) {
	f := newFixture(t, beforeMonday)
	ctx := context.Background()
	for _, start := range []string{"2024-06-10T09:00:00", "2024-06-10T10:00:00", "2024-06-11T09:00:00"} {
		_, err := f.svc.Book(ctx, BookingRequest{EventSlug: "30-min", InviteeName: "Ada", InviteeEmail: "ada@example.com", StartTime: start, Timezone: "UTC"})
		require.NoError(t, err)
	}

	f.now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	n, err := f.svc.CompletePastMeetings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	scheduled, err := f.svc.ListMeetings(ctx, model.MeetingFilter{Status: model.MeetingScheduled})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC), scheduled[0].StartTime)

	// Completed meetings cannot be cancelled.
	completed, err := f.svc.ListMeetings(ctx, model.MeetingFilter{Status: model.MeetingCompleted})
	require.NoError(t, err)
	_, err = f.svc.CancelMeeting(ctx, completed[0].ID)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestListMeetingsValidation(t *testing.T) {
	f := newFixture(t, beforeMonday)
	ctx := context.Background()

	_, err := f.svc.ListMeetings(ctx, model.MeetingFilter{Limit: MaxMeetingLimit + 1})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, err = f.svc.ListMeetings(ctx, model.MeetingFilter{Status: "booked"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	at := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.ListMeetings(ctx, model.MeetingFilter{From: at, To: at})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	list, err := f.svc.ListMeetings(ctx, model.MeetingFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestScheduledMeetingsPagesPastListLimit(t *testing.T) {
	f := newFixture(t, beforeMonday)
	ctx := context.Background()

	// Exactly two full pages, so the loop must also handle an empty final page.
	const total = 2 * MaxMeetingLimit
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	var cancelID string
	for i := 0; i < total+1; i++ {
		m, err := f.store.CreateMeetingIfFree(ctx, model.Meeting{
			EventTypeID:  f.et.ID,
			InviteeName:  "Guest",
			InviteeEmail: "guest@example.com",
			StartTime:    start.Add(time.Duration(i) * 30 * time.Minute),
			EndTime:      start.Add(time.Duration(i+1) * 30 * time.Minute),
			Timezone:     "UTC",
		})
		require.NoError(t, err)
		if i == 7 {
			cancelID = m.ID
		}
	}
	_, err := f.svc.CancelMeeting(ctx, cancelID)
	require.NoError(t, err)

	got, err := f.svc.ScheduledMeetings(ctx, f.et.ID)
	require.NoError(t, err)
	require.Len(t, got, total)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].StartTime.Before(got[i].StartTime), "meetings out of order at %d", i)
	}
	for _, m := range got {
		assert.NotEqual(t, cancelID, m.ID)
	}

	_, err = f.svc.ScheduledMeetings(ctx, "3f1c9a54-7d0e-4b8e-9c61-0a2f5e1b7c11")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
