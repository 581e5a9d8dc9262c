// Package tests holds end-to-end tests that drive the full HTTP stack.
package tests

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/db"
)

// RunMigrations applies the embedded migrations to database.
func RunMigrations(database *sql.DB) error {
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// TruncateUsers empties the users table for a clean test state.
func TruncateUsers(ctx context.Context, database *sql.DB) error {
	if _, err := database.ExecContext(ctx, "TRUNCATE TABLE users"); err != nil {
		return fmt.Errorf("truncate users: %w", err)
	}
	return nil
}
