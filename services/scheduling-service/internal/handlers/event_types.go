package handlers

import (
	"net/http"

	"github.com/slotwise/scheduler/libs/httpx"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/calendar"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/scheduling"
)

func (req eventTypeRequest) input() scheduling.EventTypeInput {
	return scheduling.EventTypeInput{
		Name:            req.Name,
		Slug:            req.Slug,
		DurationMinutes: req.DurationMinutes,
		Description:     req.Description,
		Color:           req.Color,
	}
}

func (h *Handler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListEventTypes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]eventTypeResponse, 0, len(items))
	for _, et := range items {
		out = append(out, toEventType(et))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"event_types": out})
}

func (h *Handler) CreateEventType(w http.ResponseWriter, r *http.Request) {
	var req eventTypeRequest
	if !h.decode(w, r, &req) {
		return
	}
	et, err := h.svc.CreateEventType(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/event-types/"+et.ID)
	httpx.WriteJSON(w, http.StatusCreated, toEventType(et))
}

func (h *Handler) GetEventType(w http.ResponseWriter, r *http.Request) {
	et, err := h.svc.GetEventType(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toEventType(et))
}

func (h *Handler) UpdateEventType(w http.ResponseWriter, r *http.Request) {
	var req eventTypeRequest
	if !h.decode(w, r, &req) {
		return
	}
	et, err := h.svc.UpdateEventType(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toEventType(et))
}

func (h *Handler) DeleteEventType(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEventType(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EventTypeFeed serves the scheduled meetings of an event type as an
// iCalendar feed.
func (h *Handler) EventTypeFeed(w http.ResponseWriter, r *http.Request) {
	et, err := h.svc.GetEventType(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	meetings, err := h.svc.ScheduledMeetings(r.Context(), et.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeCalendar(w, calendar.Feed(et, meetings))
}

func writeCalendar(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", calendar.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
