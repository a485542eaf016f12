package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS authenticator (
		id TEXT PRIMARY KEY,
		issuer TEXT NOT NULL,
		username TEXT,
		type TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		digits INTEGER NOT NULL,
		period INTEGER NOT NULL,
		counter INTEGER NOT NULL DEFAULT 0,
		secret TEXT NOT NULL,
		icon TEXT,
		ranking INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS category (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		ranking INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS authenticator_category (
		authenticator_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		PRIMARY KEY (authenticator_id, category_id),
		FOREIGN KEY(authenticator_id) REFERENCES authenticator(id) ON DELETE CASCADE,
		FOREIGN KEY(category_id) REFERENCES category(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS custom_icon (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`,
}

// applySchema creates the store's tables. Each statement is wrapped in the
// retry policy because creation on first launch can hit transient lock
// contention.
func applySchema(ctx context.Context, db *sql.DB, attempts int, base time.Duration) error {
	for _, stmt := range schemaStatements {
		stmt := stmt
		err := retryBusy(ctx, attempts, base, func() error {
			_, execErr := db.ExecContext(ctx, stmt)
			return execErr
		})
		if err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}
