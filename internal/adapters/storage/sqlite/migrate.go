package sqlite

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// Migrate ensures the SQLite schema exists and is upgraded to SchemaVersion.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}

	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	steps := []struct {
		name string
		sql  string
	}{
		{"create threads table", `
			CREATE TABLE IF NOT EXISTS threads (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				kind TEXT NOT NULL,
				status TEXT NOT NULL,
				prompt TEXT NOT NULL,
				participants TEXT NOT NULL,
				proposal TEXT NULL,
				executed_at TEXT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);`},
		{"create thread_participants table", `
			CREATE TABLE IF NOT EXISTS thread_participants (
				thread_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				PRIMARY KEY (thread_id, user_id),
				FOREIGN KEY(thread_id) REFERENCES threads(id)
			);`},
		{"create audit_entries table", `
			CREATE TABLE IF NOT EXISTS audit_entries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				thread_id TEXT NOT NULL,
				action TEXT NOT NULL,
				user_id TEXT NULL,
				payload TEXT NULL,
				at TEXT NOT NULL
			);`},
		{"create idx_threads_owner", `CREATE INDEX IF NOT EXISTS idx_threads_owner ON threads(owner_id, created_at);`},
		{"create idx_thread_participants_user", `CREATE INDEX IF NOT EXISTS idx_thread_participants_user ON thread_participants(user_id);`},
		{"create idx_audit_entries_thread", `CREATE INDEX IF NOT EXISTS idx_audit_entries_thread ON audit_entries(thread_id, id);`},
	}

	for _, step := range steps {
		if _, err := tx.Exec(step.sql); err != nil {
			return fmt.Errorf("migrate: %s: %w", step.name, err)
		}
	}

	_, err = tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}

	return nil
}
