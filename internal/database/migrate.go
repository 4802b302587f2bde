package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed migrations/001_preferences.up.sql
var preferencesSQL string

// EnsureSchema creates the preferences table when it does not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM information_schema.tables
		   WHERE table_schema = current_schema() AND table_name = 'preferences')`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check preferences table: %w", err)
	}

	if exists {
		return nil
	}

	slog.Info("preferences table missing; applying migration")
	if _, err := db.Pool.Exec(ctx, preferencesSQL); err != nil {
		return fmt.Errorf("apply preferences migration: %w", err)
	}

	slog.Info("database schema ensured")
	return nil
}
