package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL migration statements.
// Each entry is applied once in order. New migrations are appended at the end.
var migrations = []string{
	// Migration 0: initial schema
	`CREATE TABLE IF NOT EXISTS hierarchies (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		source_dir  TEXT NOT NULL,
		body        TEXT NOT NULL,
		label_count INTEGER DEFAULT 0,
		item_count  INTEGER DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS example_sets (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		hierarchy_id  INTEGER REFERENCES hierarchies(id) ON DELETE SET NULL,
		token_budget  INTEGER NOT NULL,
		total_tokens  INTEGER NOT NULL,
		min_per_label INTEGER DEFAULT 1,
		max_per_label INTEGER DEFAULT 0,
		seed          INTEGER DEFAULT 0,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS examples (
		set_id      INTEGER NOT NULL REFERENCES example_sets(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		content     TEXT NOT NULL,
		labels      TEXT NOT NULL DEFAULT '[]',
		label_paths TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (set_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS item_labels (
		item_id    TEXT PRIMARY KEY,
		labels     TEXT NOT NULL DEFAULT '[]',
		model      TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_example_sets_hierarchy ON example_sets(hierarchy_id)`,
	`CREATE INDEX IF NOT EXISTS idx_item_labels_updated    ON item_labels(updated_at DESC)`,

	// Migration 6: migration tracking table
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// applyMigrations runs any migrations that have not yet been applied.
func applyMigrations(conn *sql.DB) error {
	// Ensure the migration tracking table exists first.
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmt := range migrations {
		var count int
		row := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, i)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", i, err)
		}
		if count > 0 {
			continue
		}

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i, err)
		}
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, i); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i, err)
		}
	}

	return nil
}
