package outbox

import (
	"encoding/json"
	"time"

	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	MeetingScheduled = "scheduling.meeting.scheduled.v1"
	MeetingCancelled = "scheduling.meeting.cancelled.v1"
	MeetingCompleted = "scheduling.meeting.completed.v1"
)

type meetingPayload struct {
	MeetingID    string `json:"meeting_id"`
	EventTypeID  string `json:"event_type_id"`
	InviteeName  string `json:"invitee_name"`
	InviteeEmail string `json:"invitee_email"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Timezone     string `json:"timezone"`
	Status       string `json:"status"`
	OccurredAt   string `json:"occurred_at"`
}

// MeetingEvent builds the outbox event for a meeting lifecycle change.
func MeetingEvent(eventType string, m model.Meeting, occurredAt time.Time) (Event, error) {
	payload, err := json.Marshal(meetingPayload{
		MeetingID:    m.ID,
		EventTypeID:  m.EventTypeID,
		InviteeName:  m.InviteeName,
		InviteeEmail: m.InviteeEmail,
		StartTime:    m.StartTime.UTC().Format(time.RFC3339),
		EndTime:      m.EndTime.UTC().Format(time.RFC3339),
		Timezone:     m.Timezone,
		Status:       m.Status,
		OccurredAt:   occurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "meeting",
		AggregateID:   m.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
