package storage

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/slotwise/scheduler/libs/db"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the scheduling tables when they do not exist. The schema is
// idempotent so it is safe to run on every start.
func Migrate(ctx context.Context, conn db.Conn) error {
	if _, err := conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
