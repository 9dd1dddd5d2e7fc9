package storage

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
)

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeExclusionViolation  = "23P01"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// mapError translates driver errors into the apperr taxonomy. what names the
// record for not-found messages and op labels storage failures.
func mapError(op, what string, err error) error {
	if err == nil {
		return nil
	}
	var typed *apperr.Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s not found", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeExclusionViolation:
			return apperr.Conflict("slot already booked")
		case codeUniqueViolation:
			if strings.Contains(pgErr.ConstraintName, "slug") {
				return apperr.Conflict("slug is already in use")
			}
			return apperr.Conflict("%s already exists", what)
		case codeForeignKeyViolation:
			return apperr.NotFound("event type not found")
		case codeCheckViolation:
			return apperr.Validation(pgErr.ColumnName, "violates %s", pgErr.ConstraintName)
		}
	}
	return apperr.Storage(op, err)
}

// checkID rejects ids that cannot be uuids before they reach a uuid column,
// where PostgreSQL would fail with invalid_text_representation.
func checkID(what, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound("%s %s not found", what, id)
	}
	return nil
}
