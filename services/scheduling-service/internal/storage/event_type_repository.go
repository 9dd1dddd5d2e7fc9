package storage

import (
	"context"

	"github.com/slotwise/scheduler/libs/db"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
)

type EventTypeRepository struct {
	conn db.Conn
}

func NewEventTypeRepository(conn db.Conn) *EventTypeRepository {
	return &EventTypeRepository{conn: conn}
}

const eventTypeColumns = `id::text, name, slug, duration_minutes, description, color, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEventType(row rowScanner) (model.EventType, error) {
	var et model.EventType
	err := row.Scan(&et.ID, &et.Name, &et.Slug, &et.DurationMinutes, &et.Description, &et.Color, &et.CreatedAt, &et.UpdatedAt)
	return et, err
}

func (r *EventTypeRepository) CreateEventType(ctx context.Context, et model.EventType) (model.EventType, error) {
	err := r.conn.QueryRow(ctx, `
		INSERT INTO event_types (name, slug, duration_minutes, description, color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, created_at, updated_at
	`, et.Name, et.Slug, et.DurationMinutes, et.Description, et.Color).Scan(&et.ID, &et.CreatedAt, &et.UpdatedAt)
	if err != nil {
		return model.EventType{}, mapError("create event type", "event type", err)
	}
	return et, nil
}

func (r *EventTypeRepository) GetEventType(ctx context.Context, id string) (model.EventType, error) {
	if err := checkID("event type", id); err != nil {
		return model.EventType{}, err
	}
	et, err := scanEventType(r.conn.QueryRow(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types
		WHERE id = $1
	`, id))
	if err != nil {
		return model.EventType{}, mapError("get event type", "event type "+id, err)
	}
	return et, nil
}

func (r *EventTypeRepository) GetEventTypeBySlug(ctx context.Context, slug string) (model.EventType, error) {
	et, err := scanEventType(r.conn.QueryRow(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types
		WHERE slug = $1
	`, slug))
	if err != nil {
		return model.EventType{}, mapError("get event type by slug", "event type "+slug, err)
	}
	return et, nil
}

func (r *EventTypeRepository) ListEventTypes(ctx context.Context) ([]model.EventType, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types
		ORDER BY created_at ASC, slug ASC
	`)
	if err != nil {
		return nil, mapError("list event types", "event types", err)
	}
	defer rows.Close()

	out := []model.EventType{}
	for rows.Next() {
		et, err := scanEventType(rows)
		if err != nil {
			return nil, mapError("list event types", "event types", err)
		}
		out = append(out, et)
	}
	if rows.Err() != nil {
		return nil, mapError("list event types", "event types", rows.Err())
	}
	return out, nil
}

func (r *EventTypeRepository) UpdateEventType(ctx context.Context, et model.EventType) (model.EventType, error) {
	if err := checkID("event type", et.ID); err != nil {
		return model.EventType{}, err
	}
	err := r.conn.QueryRow(ctx, `
		UPDATE event_types
		SET name = $2,
			slug = $3,
			duration_minutes = $4,
			description = $5,
			color = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, et.ID, et.Name, et.Slug, et.DurationMinutes, et.Description, et.Color).Scan(&et.CreatedAt, &et.UpdatedAt)
	if err != nil {
		return model.EventType{}, mapError("update event type", "event type "+et.ID, err)
	}
	return et, nil
}

// DeleteEventType relies on ON DELETE CASCADE for rules, overrides and
// meetings.
func (r *EventTypeRepository) DeleteEventType(ctx context.Context, id string) error {
	if err := checkID("event type", id); err != nil {
		return err
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM event_types WHERE id = $1`, id)
	if err != nil {
		return mapError("delete event type", "event type "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("event type %s not found", id)
	}
	return nil
}
