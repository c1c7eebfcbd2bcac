package store

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS cyber_incidents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL DEFAULT '',
		incident_type TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		reported_by TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS datasets_metadata (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset_name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		last_updated TEXT NOT NULL DEFAULT '',
		record_count INTEGER NOT NULL DEFAULT 0,
		file_size_mb REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS it_tickets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_date TEXT NOT NULL DEFAULT '',
		resolved_date TEXT,
		assigned_to TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		username TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_seen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT,
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_type ON cyber_incidents(incident_type);`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_ticket_id ON it_tickets(ticket_id);`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);`,
}

// ApplyMigrations creates the schema idempotently. There is no version
// bookkeeping: every statement is safe to re-run on startup.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return storageErr(fmt.Sprintf("migration %d", i), err)
		}
	}
	return nil
}
