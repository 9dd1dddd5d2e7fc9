// Package handlers exposes the scheduling core over JSON/HTTP.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/slotwise/scheduler/libs/httpx"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/scheduling"
)

type Handler struct {
	svc    *scheduling.Service
	logger *slog.Logger
	// hideInternal replaces storage failure messages with a generic one.
	hideInternal bool
}

func New(svc *scheduling.Service, logger *slog.Logger, production bool) *Handler {
	return &Handler{svc: svc, logger: logger, hideInternal: production}
}

// Register mounts every route on mux. public wraps the unauthenticated
// booking routes (rate limiting); it may be nil.
func (h *Handler) Register(mux *http.ServeMux, public httpx.Middleware) {
	pub := func(fn http.HandlerFunc) http.Handler { return httpx.Chain(fn, public) }

	mux.Handle("GET /api/v1/public/event-types/{slug}", pub(h.PublicEventType))
	mux.Handle("GET /api/v1/public/slots", pub(h.Slots))
	mux.Handle("POST /api/v1/public/book", pub(h.Book))

	mux.HandleFunc("GET /api/v1/event-types", h.ListEventTypes)
	mux.HandleFunc("POST /api/v1/event-types", h.CreateEventType)
	mux.HandleFunc("GET /api/v1/event-types/{id}", h.GetEventType)
	mux.HandleFunc("PUT /api/v1/event-types/{id}", h.UpdateEventType)
	mux.HandleFunc("DELETE /api/v1/event-types/{id}", h.DeleteEventType)
	mux.HandleFunc("GET /api/v1/event-types/{id}/availability", h.GetAvailability)
	mux.HandleFunc("PUT /api/v1/event-types/{id}/availability", h.SaveAvailability)
	mux.HandleFunc("GET /api/v1/event-types/{id}/overrides", h.ListOverrides)
	mux.HandleFunc("PUT /api/v1/event-types/{id}/overrides", h.SetOverride)
	mux.HandleFunc("DELETE /api/v1/event-types/{id}/overrides/{date}", h.DeleteOverride)
	mux.HandleFunc("GET /api/v1/event-types/{id}/calendar.ics", h.EventTypeFeed)

	mux.HandleFunc("GET /api/v1/meetings", h.ListMeetings)
	mux.HandleFunc("GET /api/v1/meetings/{id}", h.GetMeeting)
	mux.HandleFunc("POST /api/v1/meetings/{id}/cancel", h.CancelMeeting)
	mux.HandleFunc("GET /api/v1/meetings/{id}/invite.ics", h.MeetingInvite)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation, apperr.KindInvalidTimezone:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error body with the status of its kind.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		if h.hideInternal {
			msg = "internal error"
		}
	}
	httpx.WriteError(w, status, string(kind), msg)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, string(apperr.KindValidation), "request body too large")
			return false
		}
		httpx.WriteError(w, http.StatusBadRequest, string(apperr.KindValidation), "invalid json body")
		return false
	}
	return true
}
