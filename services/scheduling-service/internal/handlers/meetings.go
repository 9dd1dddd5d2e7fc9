package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/slotwise/scheduler/libs/httpx"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/calendar"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	filter, err := meetingFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := h.svc.ListMeetings(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]meetingResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toMeeting(m))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"meetings": out})
}

func meetingFilter(q url.Values) (model.MeetingFilter, error) {
	filter := model.MeetingFilter{
		EventTypeID: q.Get("event_type_id"),
		Status:      q.Get("status"),
	}
	var err error
	if filter.From, err = parseBound("from", q.Get("from")); err != nil {
		return filter, err
	}
	if filter.To, err = parseBound("to", q.Get("to")); err != nil {
		return filter, err
	}
	if raw := q.Get("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return filter, apperr.Validation("limit", "must be an integer")
		}
		filter.Limit = n
	}
	return filter, nil
}

// parseBound accepts an RFC 3339 instant or a date, read as midnight UTC.
func parseBound(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	d, err := timeconv.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperr.Validation(field, "must be RFC 3339 or YYYY-MM-DD")
	}
	return timeconv.Anchor(d, timeconv.Clock{}, time.UTC), nil
}

func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMeeting(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMeeting(m))
}

func (h *Handler) CancelMeeting(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.CancelMeeting(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMeeting(m))
}

func (h *Handler) MeetingInvite(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMeeting(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="invite.ics"`)
	writeCalendar(w, calendar.Invite(m))
}
