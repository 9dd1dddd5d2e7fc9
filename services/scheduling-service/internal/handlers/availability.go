package handlers

import (
	"net/http"

	"github.com/slotwise/scheduler/libs/httpx"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/scheduling"
)

func rulesBody(eventTypeID string, rules []model.AvailabilityRule) map[string]any {
	out := make([]ruleItem, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRule(rule))
	}
	return map[string]any{"event_type_id": eventTypeID, "rules": out}
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rules, err := h.svc.GetAvailability(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rulesBody(id, rules))
}

// SaveAvailability replaces the whole weekly rule set of an event type.
func (h *Handler) SaveAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := make([]scheduling.RuleInput, 0, len(req.Rules))
	for _, item := range req.Rules {
		tz := item.Timezone
		if tz == "" {
			tz = req.Timezone
		}
		in = append(in, scheduling.RuleInput{
			DayOfWeek: item.DayOfWeek,
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
			Timezone:  tz,
		})
	}
	id := r.PathValue("id")
	rules, err := h.svc.SaveAvailability(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rulesBody(id, rules))
}

func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListOverrides(r.Context(), r.PathValue("id"), q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]overrideResponse, 0, len(items))
	for _, ov := range items {
		out = append(out, toOverride(ov))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"overrides": out})
}

// SetOverride creates or replaces the override for one date.
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.IsAvailable == nil {
		h.fail(w, r, apperr.Validation("is_available", "is required"))
		return
	}
	ov, err := h.svc.SetOverride(r.Context(), r.PathValue("id"), scheduling.OverrideInput{
		Date:        req.Date,
		IsAvailable: *req.IsAvailable,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOverride(ov))
}

func (h *Handler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteOverride(r.Context(), r.PathValue("id"), r.PathValue("date")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
