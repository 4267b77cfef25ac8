package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are idempotent DDL statements applied in order. They
// cover only the tables this service owns; the org directory tables
// are managed by the portal web application.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		group_id TEXT,
		title TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS chats_user_updated_idx
		ON chats (user_id, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		parts JSONB NOT NULL,
		finish_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS messages_chat_created_idx
		ON messages (chat_id, created_at)`,
	`ALTER TABLE messages ADD COLUMN IF NOT EXISTS finish_reason TEXT NOT NULL DEFAULT ''`,
	`CREATE TABLE IF NOT EXISTS google_accounts (
		user_id TEXT PRIMARY KEY,
		refresh_token TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate brings the schema up to date. Every statement is idempotent
// so repeated runs are safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
