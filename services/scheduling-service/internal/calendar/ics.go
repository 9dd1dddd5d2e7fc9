// Package calendar renders meetings as iCalendar (RFC 5545) documents.
package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
)

const productID = "-//slotwise//scheduling-service//EN"

// ContentType is the media type for rendered documents.
const ContentType = "text/calendar; charset=utf-8"

// Invite renders a single meeting. Cancelled meetings use METHOD:CANCEL so
// calendar clients remove the entry.
func Invite(m model.Meeting) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	if m.Status == model.MeetingCancelled {
		cal.SetMethod(ics.MethodCancel)
	} else {
		cal.SetMethod(ics.MethodRequest)
	}
	addMeeting(cal, m)
	return cal.Serialize()
}

// Feed renders every meeting of an event type as a subscribable calendar.
func Feed(et model.EventType, meetings []model.Meeting) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(et.Name)
	for _, m := range meetings {
		if m.EventTypeName == "" {
			m.EventTypeName = et.Name
		}
		addMeeting(cal, m)
	}
	return cal.Serialize()
}

func addMeeting(cal *ics.Calendar, m model.Meeting) {
	ev := cal.AddEvent(m.ID)
	stamp := m.CreatedAt
	if m.CancelledAt != nil {
		stamp = *m.CancelledAt
	}
	if stamp.IsZero() {
		stamp = time.Now()
	}
	ev.SetDtStampTime(stamp.UTC())
	ev.SetStartAt(m.StartTime.UTC())
	ev.SetEndAt(m.EndTime.UTC())
	ev.SetSummary(summary(m))
	ev.SetDescription(fmt.Sprintf("Booked in %s. Local time %s.", m.Timezone, m.LocalStart().Format("Mon 2 Jan 2006 15:04 MST")))
	ev.AddAttendee(m.InviteeEmail, ics.WithCN(m.InviteeName))
	switch m.Status {
	case model.MeetingCancelled:
		ev.SetStatus(ics.ObjectStatusCancelled)
	default:
		ev.SetStatus(ics.ObjectStatusConfirmed)
	}
}

func summary(m model.Meeting) string {
	if m.EventTypeName == "" {
		return m.InviteeName
	}
	return m.EventTypeName + " with " + m.InviteeName
}
