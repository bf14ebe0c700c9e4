package database

import (
	"context"
	"fmt"
	"strings"
)

// migration defines a single idempotent schema migration.
type migration struct {
	name  string
	sql   string
	check string // query that returns true if the migration is already applied
}

// migrations is the ordered list of schema migrations to apply.
// Each must be idempotent (use IF NOT EXISTS, IF EXISTS, etc.).
var migrations = []migration{
	{
		name:  "add reports.source",
		sql:   `ALTER TABLE reports ADD COLUMN IF NOT EXISTS source text NOT NULL DEFAULT 'upload'`,
		check: `SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'reports' AND column_name = 'source')`,
	},
	{
		name:  "add reports.xlsx_key",
		sql:   `ALTER TABLE reports ADD COLUMN IF NOT EXISTS xlsx_key text NOT NULL DEFAULT ''`,
		check: `SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'reports' AND column_name = 'xlsx_key')`,
	},
	{
		name:  "add reports dominant_emotion index",
		sql:   `CREATE INDEX IF NOT EXISTS idx_reports_dominant ON reports (dominant_emotion)`,
		check: `SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_reports_dominant')`,
	},
}

// Migrate runs all pending schema migrations. For each migration it first
// checks whether the change is already present; apply failures are fatal
// since queries depend on the columns existing.
func (db *DB) Migrate(ctx context.Context) error {
	var pending []migration
	for _, m := range migrations {
		if m.check != "" {
			var exists bool
			if err := db.Pool.QueryRow(ctx, m.check).Scan(&exists); err == nil && exists {
				continue
			}
		}
		pending = append(pending, m)
	}

	if len(pending) == 0 {
		db.log.Debug().Msg("schema up to date")
		return nil
	}

	var applied []string
	for _, m := range pending {
		if _, err := db.Pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %q: %w", m.name, err)
		}
		applied = append(applied, m.name)
	}

	db.log.Info().Str("applied", strings.Join(applied, ", ")).Msg("schema migrations applied")
	return nil
}
