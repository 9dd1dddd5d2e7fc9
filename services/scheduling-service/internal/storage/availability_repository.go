package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/slotwise/scheduler/libs/db"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/model"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

// Time-of-day and date columns travel as text: params are cast with ::time
// and ::date, results are rendered with to_char.

type AvailabilityRepository struct {
	conn db.Conn
}

func NewAvailabilityRepository(conn db.Conn) *AvailabilityRepository {
	return &AvailabilityRepository{conn: conn}
}

func (r *AvailabilityRepository) ListRules(ctx context.Context, eventTypeID string) ([]model.AvailabilityRule, error) {
	if err := checkID("event type", eventTypeID); err != nil {
		return nil, err
	}
	rows, err := r.conn.Query(ctx, `
		SELECT id::text, event_type_id::text, day_of_week,
			to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'), timezone
		FROM availability_rules
		WHERE event_type_id = $1
		ORDER BY day_of_week, start_time, end_time
	`, eventTypeID)
	if err != nil {
		return nil, mapError("list availability rules", "availability rules", err)
	}
	defer rows.Close()

	rules := []model.AvailabilityRule{}
	for rows.Next() {
		var (
			rule       model.AvailabilityRule
			dow        int
			start, end string
		)
		if err := rows.Scan(&rule.ID, &rule.EventTypeID, &dow, &start, &end, &rule.Timezone); err != nil {
			return nil, mapError("list availability rules", "availability rules", err)
		}
		rule.DayOfWeek = time.Weekday(dow)
		if rule.StartTime, err = timeconv.ParseClock(start); err != nil {
			return nil, apperr.Storage("decode availability rule", err)
		}
		if rule.EndTime, err = timeconv.ParseClock(end); err != nil {
			return nil, apperr.Storage("decode availability rule", err)
		}
		rules = append(rules, rule)
	}
	if rows.Err() != nil {
		return nil, mapError("list availability rules", "availability rules", rows.Err())
	}
	return rules, nil
}

// ReplaceRules swaps the full rule set in one transaction. The event type row
// is locked first so concurrent saves for the same event type serialise.
func (r *AvailabilityRepository) ReplaceRules(ctx context.Context, eventTypeID string, rules []model.AvailabilityRule) ([]model.AvailabilityRule, error) {
	if err := checkID("event type", eventTypeID); err != nil {
		return nil, err
	}
	saved := make([]model.AvailabilityRule, 0, len(rules))
	err := db.InTx(ctx, r.conn, func(tx pgx.Tx) error {
		if err := lockEventType(ctx, tx, eventTypeID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM availability_rules WHERE event_type_id = $1`, eventTypeID); err != nil {
			return err
		}
		for _, rule := range rules {
			rule.EventTypeID = eventTypeID
			err := tx.QueryRow(ctx, `
				INSERT INTO availability_rules (event_type_id, day_of_week, start_time, end_time, timezone)
				VALUES ($1, $2, $3::time, $4::time, $5)
				RETURNING id::text
			`, eventTypeID, int(rule.DayOfWeek), rule.StartTime.String(), rule.EndTime.String(), rule.Timezone).Scan(&rule.ID)
			if err != nil {
				return err
			}
			saved = append(saved, rule)
		}
		return nil
	})
	if err != nil {
		return nil, mapError("replace availability rules", "availability rule", err)
	}
	return saved, nil
}

func lockEventType(ctx context.Context, tx pgx.Tx, eventTypeID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id::text FROM event_types WHERE id = $1 FOR UPDATE`, eventTypeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("event type %s not found", eventTypeID)
	}
	return err
}

const overrideColumns = `id::text, event_type_id::text, to_char(override_date, 'YYYY-MM-DD'), is_available,
	COALESCE(to_char(start_time, 'HH24:MI:SS'), ''), COALESCE(to_char(end_time, 'HH24:MI:SS'), '')`

func scanOverride(row rowScanner) (model.AvailabilityOverride, error) {
	var (
		ov               model.AvailabilityOverride
		date, start, end string
	)
	if err := row.Scan(&ov.ID, &ov.EventTypeID, &date, &ov.IsAvailable, &start, &end); err != nil {
		return model.AvailabilityOverride{}, err
	}
	var err error
	if ov.Date, err = timeconv.ParseDate(date); err != nil {
		return model.AvailabilityOverride{}, apperr.Storage("decode override", err)
	}
	if start != "" && end != "" {
		if ov.StartTime, err = timeconv.ParseClock(start); err != nil {
			return model.AvailabilityOverride{}, apperr.Storage("decode override", err)
		}
		if ov.EndTime, err = timeconv.ParseClock(end); err != nil {
			return model.AvailabilityOverride{}, apperr.Storage("decode override", err)
		}
		ov.HasRange = true
	}
	return ov, nil
}

func (r *AvailabilityRepository) GetOverride(ctx context.Context, eventTypeID string, date timeconv.Date) (model.AvailabilityOverride, bool, error) {
	if err := checkID("event type", eventTypeID); err != nil {
		return model.AvailabilityOverride{}, false, err
	}
	ov, err := scanOverride(r.conn.QueryRow(ctx, `
		SELECT `+overrideColumns+`
		FROM availability_overrides
		WHERE event_type_id = $1 AND override_date = $2::date
	`, eventTypeID, date.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AvailabilityOverride{}, false, nil
	}
	if err != nil {
		return model.AvailabilityOverride{}, false, mapError("get override", "override", err)
	}
	return ov, true, nil
}

func (r *AvailabilityRepository) ListOverrides(ctx context.Context, eventTypeID string, from, to timeconv.Date) ([]model.AvailabilityOverride, error) {
	if err := checkID("event type", eventTypeID); err != nil {
		return nil, err
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+overrideColumns+`
		FROM availability_overrides
		WHERE event_type_id = $1
			AND ($2::date IS NULL OR override_date >= $2::date)
			AND ($3::date IS NULL OR override_date <= $3::date)
		ORDER BY override_date
	`, eventTypeID, dateParam(from), dateParam(to))
	if err != nil {
		return nil, mapError("list overrides", "overrides", err)
	}
	defer rows.Close()

	out := []model.AvailabilityOverride{}
	for rows.Next() {
		ov, err := scanOverride(rows)
		if err != nil {
			return nil, mapError("list overrides", "overrides", err)
		}
		out = append(out, ov)
	}
	if rows.Err() != nil {
		return nil, mapError("list overrides", "overrides", rows.Err())
	}
	return out, nil
}

func (r *AvailabilityRepository) UpsertOverride(ctx context.Context, ov model.AvailabilityOverride) (model.AvailabilityOverride, error) {
	if err := checkID("event type", ov.EventTypeID); err != nil {
		return model.AvailabilityOverride{}, err
	}
	var start, end any
	if ov.HasRange {
		start, end = ov.StartTime.String(), ov.EndTime.String()
	}
	err := r.conn.QueryRow(ctx, `
		INSERT INTO availability_overrides (event_type_id, override_date, is_available, start_time, end_time)
		VALUES ($1, $2::date, $3, $4::time, $5::time)
		ON CONFLICT (event_type_id, override_date)
		DO UPDATE SET is_available = EXCLUDED.is_available,
		              start_time = EXCLUDED.start_time,
		              end_time = EXCLUDED.end_time
		RETURNING id::text
	`, ov.EventTypeID, ov.Date.String(), ov.IsAvailable, start, end).Scan(&ov.ID)
	if err != nil {
		return model.AvailabilityOverride{}, mapError("upsert override", "override", err)
	}
	return ov, nil
}

func (r *AvailabilityRepository) DeleteOverride(ctx context.Context, eventTypeID string, date timeconv.Date) error {
	if err := checkID("event type", eventTypeID); err != nil {
		return err
	}
	tag, err := r.conn.Exec(ctx, `
		DELETE FROM availability_overrides
		WHERE event_type_id = $1 AND override_date = $2::date
	`, eventTypeID, date.String())
	if err != nil {
		return mapError("delete override", "override", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("no override for %s on %s", eventTypeID, date)
	}
	return nil
}

func dateParam(d timeconv.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
