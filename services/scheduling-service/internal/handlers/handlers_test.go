package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/slotwise/scheduler/libs/httpx"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/calendar"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/memstore"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newMux(t *testing.T, store *memstore.Store, production bool, public httpx.Middleware) *http.ServeMux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := scheduling.New(store, store, store, logger,
		scheduling.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	mux := http.NewServeMux()
	New(svc, logger, production).Register(mux, public)
	return mux
}

func do(t *testing.T, mux http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createEventType(t *testing.T, mux http.Handler) eventTypeResponse {
	t.Helper()
	rec := do(t, mux, http.MethodPost, "/api/v1/event-types", eventTypeRequest{
		Name: "Intro call", Slug: "intro", DurationMinutes: 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[eventTypeResponse](t, rec)
}

func TestBookingFlow(t *testing.T) {
	mux := newMux(t, memstore.New(), false, nil)
	et := createEventType(t, mux)

	monday := 1
	rec := do(t, mux, http.MethodPut, "/api/v1/event-types/"+et.ID+"/availability", availabilityRequest{
		Timezone: "UTC",
		Rules:    []ruleItem{{DayOfWeek: &monday, StartTime: "09:00", EndTime: "10:00"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/api/v1/public/slots?event=intro&date=2024-06-10&timezone=UTC", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	slots := decodeBody[slotsResponse](t, rec)
	require.Len(t, slots.Slots, 2)
	assert.Equal(t, "2024-06-10T09:00:00", slots.Slots[0].Start)

	book := bookRequest{
		Event: "intro", InviteeName: "Ada", InviteeEmail: "ada@example.com",
		StartTime: "2024-06-10T09:00:00", Timezone: "UTC",
	}
	rec = do(t, mux, http.MethodPost, "/api/v1/public/book", book)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	meeting := decodeBody[meetingResponse](t, rec)
	assert.Equal(t, "2024-06-10T09:00:00Z", meeting.StartTime)
	assert.Equal(t, "2024-06-10T09:30:00Z", meeting.EndTime)
	assert.Equal(t, model.MeetingScheduled, meeting.Status)
	assert.Equal(t, "/api/v1/meetings/"+meeting.ID, rec.Header().Get("Location"))

	rec = do(t, mux, http.MethodGet, "/api/v1/public/slots?event=intro&date=2024-06-10&timezone=UTC", nil)
	slots = decodeBody[slotsResponse](t, rec)
	require.Len(t, slots.Slots, 1)
	assert.Equal(t, "2024-06-10T09:30:00", slots.Slots[0].Start)

	rec = do(t, mux, http.MethodPost, "/api/v1/public/book", book)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(apperr.KindConflict), decodeBody[httpx.ErrorBody](t, rec).Kind)

	rec = do(t, mux, http.MethodGet, "/api/v1/meetings/"+meeting.ID+"/invite.ics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calendar.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")

	rec = do(t, mux, http.MethodPost, "/api/v1/meetings/"+meeting.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cancelled := decodeBody[meetingResponse](t, rec)
	assert.Equal(t, model.MeetingCancelled, cancelled.Status)
	assert.NotEmpty(t, cancelled.CancelledAt)

	rec = do(t, mux, http.MethodPost, "/api/v1/meetings/"+meeting.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The cancelled meeting frees its slot.
	rec = do(t, mux, http.MethodGet, "/api/v1/public/slots?event=intro&date=2024-06-10&timezone=UTC", nil)
	assert.Len(t, decodeBody[slotsResponse](t, rec).Slots, 2)
}

func TestSlotsDefaultTimezoneIsReported(t *testing.T) {
	mux := newMux(t, memstore.New(), false, nil)
	createEventType(t, mux)

	rec := do(t, mux, http.MethodGet, "/api/v1/public/slots?event=intro&date=2024-06-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[slotsResponse](t, rec)
	assert.Equal(t, scheduling.DefaultTimezone, body.Timezone)
	assert.NotNil(t, body.Slots)
	assert.Empty(t, body.Slots)
	assert.Contains(t, rec.Body.String(), `"slots":[]`)
}

func TestErrorStatusMapping(t *testing.T) {
	mux := newMux(t, memstore.New(), false, nil)
	createEventType(t, mux)

	cases := []struct {
		name   string
		method string
		target string
		body   any
		status int
		kind   apperr.Kind
	}{
		{"unknown slug", http.MethodGet, "/api/v1/public/slots?event=nope&date=2024-06-10", nil, http.StatusNotFound, apperr.KindNotFound},
		{"bad timezone", http.MethodGet, "/api/v1/public/slots?event=intro&date=2024-06-10&timezone=Mars/Olympus", nil, http.StatusBadRequest, apperr.KindInvalidTimezone},
		{"bad date", http.MethodGet, "/api/v1/public/slots?event=intro&date=10/06/2024", nil, http.StatusBadRequest, apperr.KindValidation},
		{"malformed id", http.MethodGet, "/api/v1/event-types/not-a-uuid", nil, http.StatusNotFound, apperr.KindNotFound},
		{"missing meeting", http.MethodGet, "/api/v1/meetings/3f1c9a54-7d0e-4b8e-9c61-0a2f5e1b7c11", nil, http.StatusNotFound, apperr.KindNotFound},
		{"duplicate slug", http.MethodPost, "/api/v1/event-types", eventTypeRequest{Name: "Again", Slug: "intro", DurationMinutes: 15}, http.StatusConflict, apperr.KindConflict},
		{"bad duration", http.MethodPost, "/api/v1/event-types", eventTypeRequest{Name: "Zero", Slug: "zero"}, http.StatusBadRequest, apperr.KindValidation},
		{"bad limit", http.MethodGet, "/api/v1/meetings?limit=ten", nil, http.StatusBadRequest, apperr.KindValidation},
		{"bad bound", http.MethodGet, "/api/v1/meetings?from=yesterday", nil, http.StatusBadRequest, apperr.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, mux, tc.method, tc.target, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, string(tc.kind), decodeBody[httpx.ErrorBody](t, rec).Kind)
		})
	}
}

func TestRejectsUnknownFields(t *testing.T) {
	mux := newMux(t, memstore.New(), false, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/event-types", strings.NewReader(`{"name":"x","slug":"x","duration_minutes":30,"owner":"me"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverrideRoutes(t *testing.T) {
	mux := newMux(t, memstore.New(), false, nil)
	et := createEventType(t, mux)
	base := "/api/v1/event-types/" + et.ID + "/overrides"

	rec := do(t, mux, http.MethodPut, base, map[string]any{"date": "2024-06-10"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPut, base, map[string]any{"date": "2024-06-10", "is_available": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ov := decodeBody[overrideResponse](t, rec)
	assert.False(t, ov.IsAvailable)

	rec = do(t, mux, http.MethodGet, base+"?from=2024-06-01&to=2024-06-30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Overrides []overrideResponse `json:"overrides"`
	}](t, rec)
	require.Len(t, list.Overrides, 1)
	assert.Equal(t, "2024-06-10", list.Overrides[0].Date)

	rec = do(t, mux, http.MethodDelete, base+"/2024-06-10", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, mux, http.MethodDelete, base+"/2024-06-10", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventTypeLifecycle(t *testing.T) {
	mux := newMux(t, memstore.New(), false, nil)
	et := createEventType(t, mux)

	rec := do(t, mux, http.MethodPut, "/api/v1/event-types/"+et.ID, eventTypeRequest{Name: "Long intro", Slug: "intro", DurationMinutes: 45})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 45, decodeBody[eventTypeResponse](t, rec).DurationMinutes)

	rec = do(t, mux, http.MethodGet, "/api/v1/public/event-types/INTRO", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	public := decodeBody[eventTypeResponse](t, rec)
	assert.Equal(t, "Long intro", public.Name)
	assert.Empty(t, public.CreatedAt)

	rec = do(t, mux, http.MethodGet, "/api/v1/event-types/"+et.ID+"/calendar.ics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-WR-CALNAME:Long intro")

	rec = do(t, mux, http.MethodDelete, "/api/v1/event-types/"+et.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, mux, http.MethodGet, "/api/v1/event-types", nil)
	assert.JSONEq(t, `{"event_types":[]}`, rec.Body.String())
}

type failingStore struct {
	*memstore.Store
}

func (failingStore) GetEventTypeBySlug(context.Context, string) (model.EventType, error) {
	return model.EventType{}, apperr.Storage("get event type", errors.New("connection reset by peer"))
}

func TestStorageErrorsAreMaskedInProduction(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := failingStore{Store: memstore.New()}
	svc, err := scheduling.New(store, store, store, logger)
	require.NoError(t, err)

	for _, production := range []bool{false, true} {
		mux := http.NewServeMux()
		New(svc, logger, production).Register(mux, nil)
		rec := do(t, mux, http.MethodGet, "/api/v1/public/event-types/intro", nil)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody[httpx.ErrorBody](t, rec)
		assert.Equal(t, string(apperr.KindStorage), body.Kind)
		if production {
			assert.Equal(t, "internal error", body.Error)
		} else {
			assert.Contains(t, body.Error, "connection reset")
		}
	}
}

func TestPublicMiddlewareOnlyWrapsPublicRoutes(t *testing.T) {
	limiter := httpx.NewRateLimiter(1, time.Minute)
	mux := newMux(t, memstore.New(), false, limiter.Middleware())
	createEventType(t, mux)

	rec := do(t, mux, http.MethodGet, "/api/v1/public/event-types/intro", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, mux, http.MethodGet, "/api/v1/public/event-types/intro", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/v1/event-types", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventTypeFeedIncludesEveryScheduledMeeting(t *testing.T) {
	store := memstore.New()
	mux := newMux(t, store, false, nil)
	et := createEventType(t, mux)

	const total = scheduling.MaxMeetingLimit + 50
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; i < total; i++ {
		_, err := store.CreateMeetingIfFree(context.Background(), model.Meeting{
			EventTypeID:  et.ID,
			InviteeName:  "Guest",
			InviteeEmail: "guest@example.com",
			StartTime:    start.Add(time.Duration(i) * 30 * time.Minute),
			EndTime:      start.Add(time.Duration(i+1) * 30 * time.Minute),
			Timezone:     "UTC",
		})
		require.NoError(t, err)
	}

	rec := do(t, mux, http.MethodGet, "/api/v1/event-types/"+et.ID+"/calendar.ics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, total, strings.Count(rec.Body.String(), "BEGIN:VEVENT"))
	last := start.Add(time.Duration(total-1) * 30 * time.Minute)
	assert.Contains(t, rec.Body.String(), "DTSTART:"+last.Format("20060102T150405Z"))
}
