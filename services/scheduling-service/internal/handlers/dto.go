package handlers

import (
	"time"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
)

type eventTypeRequest struct {
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description"`
	Color           string `json:"color"`
}

type eventTypeResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description,omitempty"`
	Color           string `json:"color,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

func toEventType(et model.EventType) eventTypeResponse {
	return eventTypeResponse{
		ID:              et.ID,
		Name:            et.Name,
		Slug:            et.Slug,
		DurationMinutes: et.DurationMinutes,
		Description:     et.Description,
		Color:           et.Color,
		CreatedAt:       formatInstant(et.CreatedAt),
		UpdatedAt:       formatInstant(et.UpdatedAt),
	}
}

type ruleItem struct {
	ID        string `json:"id,omitempty"`
	DayOfWeek *int   `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Timezone  string `json:"timezone,omitempty"`
}

type availabilityRequest struct {
	// Timezone applies to rules that omit their own.
	Timezone string     `json:"timezone"`
	Rules    []ruleItem `json:"rules"`
}

func toRule(r model.AvailabilityRule) ruleItem {
	day := int(r.DayOfWeek)
	return ruleItem{
		ID:        r.ID,
		DayOfWeek: &day,
		StartTime: r.StartTime.String(),
		EndTime:   r.EndTime.String(),
		Timezone:  r.Timezone,
	}
}

type overrideRequest struct {
	Date        string `json:"date"`
	IsAvailable *bool  `json:"is_available"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

type overrideResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	IsAvailable bool   `json:"is_available"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
}

func toOverride(ov model.AvailabilityOverride) overrideResponse {
	out := overrideResponse{ID: ov.ID, Date: ov.Date.String(), IsAvailable: ov.IsAvailable}
	if ov.HasRange {
		out.StartTime = ov.StartTime.String()
		out.EndTime = ov.EndTime.String()
	}
	return out
}

type bookRequest struct {
	Event        string `json:"event"`
	InviteeName  string `json:"invitee_name"`
	InviteeEmail string `json:"invitee_email"`
	StartTime    string `json:"start_time"`
	Timezone     string `json:"timezone"`
}

type meetingResponse struct {
	ID             string `json:"id"`
	EventTypeID    string `json:"event_type_id"`
	EventTypeName  string `json:"event_type_name"`
	EventTypeSlug  string `json:"event_type_slug"`
	InviteeName    string `json:"invitee_name"`
	InviteeEmail   string `json:"invitee_email"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	LocalStartTime string `json:"local_start_time"`
	LocalEndTime   string `json:"local_end_time"`
	Timezone       string `json:"timezone"`
	Status         string `json:"status"`
	CancelledAt    string `json:"cancelled_at,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

func toMeeting(m model.Meeting) meetingResponse {
	out := meetingResponse{
		ID:             m.ID,
		EventTypeID:    m.EventTypeID,
		EventTypeName:  m.EventTypeName,
		EventTypeSlug:  m.EventTypeSlug,
		InviteeName:    m.InviteeName,
		InviteeEmail:   m.InviteeEmail,
		StartTime:      formatInstant(m.StartTime),
		EndTime:        formatInstant(m.EndTime),
		LocalStartTime: m.LocalStart().Format(time.RFC3339),
		LocalEndTime:   m.LocalEnd().Format(time.RFC3339),
		Timezone:       m.Timezone,
		Status:         m.Status,
		CreatedAt:      formatInstant(m.CreatedAt),
	}
	if m.CancelledAt != nil {
		out.CancelledAt = formatInstant(*m.CancelledAt)
	}
	return out
}

type slotsResponse struct {
	Event    string       `json:"event"`
	Date     string       `json:"date"`
	Timezone string       `json:"timezone"`
	Slots    []model.Slot `json:"slots"`
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
