package database

import (
	"context"
	"fmt"
)

// schema is the idempotent base schema. Sessions is the token store used by
// the scs session manager; its shape is fixed by scs/pgxstore.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            bigserial PRIMARY KEY,
    username      text NOT NULL UNIQUE,
    password_hash text NOT NULL,
    created_at    timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reports (
    id               uuid PRIMARY KEY,
    user_id          bigint REFERENCES users(id),
    transcript       text NOT NULL,
    dominant_emotion text NOT NULL,
    histogram        jsonb NOT NULL DEFAULT '{}'::jsonb,
    timeline         jsonb NOT NULL DEFAULT '[]'::jsonb,
    audio_key        text NOT NULL DEFAULT '',
    pdf_key          text NOT NULL DEFAULT '',
    provider         text NOT NULL DEFAULT '',
    model            text NOT NULL DEFAULT '',
    created_at       timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reports_user_id ON reports (user_id) WHERE user_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS sessions (
    token  text PRIMARY KEY,
    data   bytea NOT NULL,
    expiry timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry);
`

// EnsureSchema creates the base tables if they do not exist, then applies
// pending migrations.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return db.Migrate(ctx)
}
