package handlers

import (
	"net/http"

	"github.com/slotwise/scheduler/libs/httpx"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/scheduling"
)

func (h *Handler) PublicEventType(w http.ResponseWriter, r *http.Request) {
	et, err := h.svc.GetEventTypeBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// Public callers only need what renders a booking page.
	out := toEventType(et)
	out.CreatedAt, out.UpdatedAt = "", ""
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := scheduling.SlotQuery{
		EventSlug: q.Get("event"),
		Date:      q.Get("date"),
		Timezone:  q.Get("timezone"),
	}
	slots, err := h.svc.GenerateSlots(r.Context(), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tz := query.Timezone
	if tz == "" {
		tz = h.svc.DefaultTimezone()
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{
		Event:    query.EventSlug,
		Date:     query.Date,
		Timezone: tz,
		Slots:    slots,
	})
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.svc.Book(r.Context(), scheduling.BookingRequest{
		EventSlug:    req.Event,
		InviteeName:  req.InviteeName,
		InviteeEmail: req.InviteeEmail,
		StartTime:    req.StartTime,
		Timezone:     req.Timezone,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/meetings/"+m.ID)
	httpx.WriteJSON(w, http.StatusCreated, toMeeting(m))
}
