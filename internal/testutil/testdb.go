package testutil

import (
	"database/sql"
	"testing"

	"github.com/adelorme/labflow/internal/db"
)

// NewTestDB opens a fresh in-memory database with the full labflow schema
// (laboratories, employees, role_permissions, deliveries, assignments)
// migrated in, and closes it when the test finishes. Each call is an
// isolated tenant database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// NewTestUoW wraps a test database in the transactional unit of work the
// workflow service uses for stage writes.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
