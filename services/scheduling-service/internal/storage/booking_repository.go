package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/slotwise/scheduler/libs/db"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/outbox"
)

// BookingRepository owns meetings. Every state change writes its outbox event
// in the same transaction.
type BookingRepository struct {
	conn   db.Conn
	events *outbox.Repository
}

func NewBookingRepository(conn db.Conn, events *outbox.Repository) *BookingRepository {
	return &BookingRepository{conn: conn, events: events}
}

const selectMeeting = `
	SELECT m.id::text, m.event_type_id::text, e.name, e.slug, m.invitee_name, m.invitee_email,
		m.start_time, m.end_time, m.timezone, m.status, m.cancelled_at, m.created_at
	FROM meetings m
	JOIN event_types e ON e.id = m.event_type_id`

func scanMeeting(row rowScanner) (model.Meeting, error) {
	var m model.Meeting
	var cancelledAt *time.Time
	err := row.Scan(
		&m.ID,
		&m.EventTypeID,
		&m.EventTypeName,
		&m.EventTypeSlug,
		&m.InviteeName,
		&m.InviteeEmail,
		&m.StartTime,
		&m.EndTime,
		&m.Timezone,
		&m.Status,
		&cancelledAt,
		&m.CreatedAt,
	)
	if err != nil {
		return model.Meeting{}, err
	}
	m.StartTime = m.StartTime.UTC()
	m.EndTime = m.EndTime.UTC()
	m.CancelledAt = cancelledAt
	return m, nil
}

func collectMeetings(rows pgx.Rows) ([]model.Meeting, error) {
	defer rows.Close()
	out := []model.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *BookingRepository) ListScheduledBetween(ctx context.Context, eventTypeID string, from, to time.Time) ([]model.Meeting, error) {
	if err := checkID("event type", eventTypeID); err != nil {
		return nil, err
	}
	rows, err := r.conn.Query(ctx, selectMeeting+`
		WHERE m.event_type_id = $1
			AND m.status = 'scheduled'
			AND m.start_time >= $2
			AND m.start_time < $3
		ORDER BY m.start_time ASC
	`, eventTypeID, from, to)
	if err != nil {
		return nil, mapError("list scheduled meetings", "meetings", err)
	}
	out, err := collectMeetings(rows)
	if err != nil {
		return nil, mapError("list scheduled meetings", "meetings", err)
	}
	return out, nil
}

// CreateMeetingIfFree locks the event type row, checks for an overlapping
// scheduled meeting and inserts, all in one transaction. The row lock
// serialises bookers of the same event type; the meetings_no_overlap
// exclusion constraint backs it up for writers that skip the lock.
func (r *BookingRepository) CreateMeetingIfFree(ctx context.Context, m model.Meeting) (model.Meeting, error) {
	if err := checkID("event type", m.EventTypeID); err != nil {
		return model.Meeting{}, err
	}
	m.Status = model.MeetingScheduled
	err := db.InTx(ctx, r.conn, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT name, slug FROM event_types WHERE id = $1 FOR UPDATE
		`, m.EventTypeID).Scan(&m.EventTypeName, &m.EventTypeSlug)
		if err != nil {
			return mapError("lock event type", "event type "+m.EventTypeID, err)
		}

		var taken bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM meetings
				WHERE event_type_id = $1
					AND status = 'scheduled'
					AND start_time < $3
					AND end_time > $2
			)
		`, m.EventTypeID, m.StartTime, m.EndTime).Scan(&taken)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("slot already booked")
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO meetings (event_type_id, invitee_name, invitee_email, start_time, end_time, timezone, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id::text, created_at
		`, m.EventTypeID, m.InviteeName, m.InviteeEmail, m.StartTime, m.EndTime, m.Timezone, m.Status).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return err
		}
		return r.emit(ctx, tx, outbox.MeetingScheduled, m, m.CreatedAt)
	})
	if err != nil {
		return model.Meeting{}, mapError("create meeting", "meeting", err)
	}
	return m, nil
}

func (r *BookingRepository) GetMeeting(ctx context.Context, id string) (model.Meeting, error) {
	if err := checkID("meeting", id); err != nil {
		return model.Meeting{}, err
	}
	m, err := scanMeeting(r.conn.QueryRow(ctx, selectMeeting+` WHERE m.id = $1`, id))
	if err != nil {
		return model.Meeting{}, mapError("get meeting", "meeting "+id, err)
	}
	return m, nil
}

func (r *BookingRepository) ListMeetings(ctx context.Context, f model.MeetingFilter) ([]model.Meeting, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.EventTypeID != "" {
		if err := checkID("event type", f.EventTypeID); err != nil {
			return []model.Meeting{}, nil
		}
		add("m.event_type_id = $%d", f.EventTypeID)
	}
	if f.Status != "" {
		add("m.status = $%d", f.Status)
	}
	if !f.From.IsZero() {
		add("m.start_time >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("m.start_time < $%d", f.To)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := selectMeeting
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf("\n\tORDER BY m.start_time ASC, m.id ASC\n\tLIMIT $%d", len(args))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list meetings", "meetings", err)
	}
	out, err := collectMeetings(rows)
	if err != nil {
		return nil, mapError("list meetings", "meetings", err)
	}
	return out, nil
}

// CancelMeeting locks the meeting row so a concurrent cancel or completion
// sees the new status.
func (r *BookingRepository) CancelMeeting(ctx context.Context, id string, at time.Time) (model.Meeting, error) {
	if err := checkID("meeting", id); err != nil {
		return model.Meeting{}, err
	}
	var m model.Meeting
	err := db.InTx(ctx, r.conn, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM meetings WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if err != nil {
			return mapError("lock meeting", "meeting "+id, err)
		}
		if status != model.MeetingScheduled {
			return apperr.Conflict("meeting is already %s", status)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE meetings
			SET status = 'cancelled',
				cancelled_at = $2
			WHERE id = $1
		`, id, at); err != nil {
			return err
		}
		m, err = scanMeeting(tx.QueryRow(ctx, selectMeeting+` WHERE m.id = $1`, id))
		if err != nil {
			return err
		}
		return r.emit(ctx, tx, outbox.MeetingCancelled, m, at)
	})
	if err != nil {
		return model.Meeting{}, mapError("cancel meeting", "meeting "+id, err)
	}
	return m, nil
}

func (r *BookingRepository) CompletePastMeetings(ctx context.Context, before time.Time) (int, error) {
	var n int
	err := db.InTx(ctx, r.conn, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE meetings
			SET status = 'completed'
			WHERE status = 'scheduled' AND end_time <= $1
			RETURNING id::text, event_type_id::text, invitee_name, invitee_email, start_time, end_time, timezone, status
		`, before)
		if err != nil {
			return err
		}
		var done []model.Meeting
		for rows.Next() {
			var m model.Meeting
			if err := rows.Scan(&m.ID, &m.EventTypeID, &m.InviteeName, &m.InviteeEmail, &m.StartTime, &m.EndTime, &m.Timezone, &m.Status); err != nil {
				rows.Close()
				return err
			}
			done = append(done, m)
		}
		rows.Close()
		if rows.Err() != nil {
			return rows.Err()
		}

		for _, m := range done {
			if err := r.emit(ctx, tx, outbox.MeetingCompleted, m, before); err != nil {
				return err
			}
		}
		n = len(done)
		return nil
	})
	if err != nil {
		return 0, mapError("complete past meetings", "meetings", err)
	}
	return n, nil
}

func (r *BookingRepository) emit(ctx context.Context, tx pgx.Tx, eventType string, m model.Meeting, at time.Time) error {
	if r.events == nil {
		return nil
	}
	evt, err := outbox.MeetingEvent(eventType, m, at)
	if err != nil {
		return err
	}
	return r.events.Insert(ctx, tx, evt)
}
