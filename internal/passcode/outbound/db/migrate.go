package db

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Migrate creates the users table when it does not exist. Used for local
// runs with database.auto_migrate; production schemas are managed outside.
func Migrate(ctx context.Context, conn dbtx) error {
	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("passcode db: migrate: %w", err)
	}
	return nil
}
