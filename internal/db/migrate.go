package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS laboratories (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		owner_account_id TEXT NOT NULL,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_laboratories_owner ON laboratories(owner_account_id)`,

	`CREATE TABLE IF NOT EXISTS employees (
		id            TEXT PRIMARY KEY,
		account_id    TEXT NOT NULL,
		laboratory_id TEXT NOT NULL REFERENCES laboratories(id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		role_name     TEXT NOT NULL,
		is_active     INTEGER NOT NULL DEFAULT 1,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_employees_account ON employees(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_laboratory ON employees(laboratory_id)`,

	`CREATE TABLE IF NOT EXISTS role_permissions (
		laboratory_id TEXT NOT NULL REFERENCES laboratories(id) ON DELETE CASCADE,
		role_name     TEXT NOT NULL,
		permissions   TEXT NOT NULL DEFAULT '{}',
		updated_at    TEXT NOT NULL,
		PRIMARY KEY (laboratory_id, role_name)
	)`,

	`CREATE TABLE IF NOT EXISTS deliveries (
		id                  TEXT PRIMARY KEY,
		laboratory_id       TEXT NOT NULL REFERENCES laboratories(id) ON DELETE CASCADE,
		delivery_number     TEXT NOT NULL,
		patient_name        TEXT NOT NULL DEFAULT '',
		dentist_name        TEXT NOT NULL DEFAULT '',
		current_stage_id    TEXT,
		progress_percentage INTEGER NOT NULL DEFAULT 0
		                    CHECK(progress_percentage BETWEEN 0 AND 100),
		status              TEXT NOT NULL DEFAULT 'pending'
		                    CHECK(status IN ('pending','in_progress','completed')),
		priority            TEXT NOT NULL DEFAULT 'normal'
		                    CHECK(priority IN ('urgent','high','normal','low')),
		is_blocked          INTEGER NOT NULL DEFAULT 0,
		due_date            TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_deliveries_laboratory ON deliveries(laboratory_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deliveries_stage ON deliveries(current_stage_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_deliveries_number
		ON deliveries(laboratory_id, delivery_number)`,

	`CREATE TABLE IF NOT EXISTS delivery_assignments (
		delivery_id TEXT NOT NULL REFERENCES deliveries(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		assigned_at TEXT NOT NULL,
		PRIMARY KEY (delivery_id, employee_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_assignments_employee ON delivery_assignments(employee_id)`,
}
