package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adelorme/labflow/internal/db"
	"github.com/adelorme/labflow/internal/domain"
)

// SQLiteRolePermissionRepo implements RolePermissionRepo using a SQLite database.
type SQLiteRolePermissionRepo struct {
	db db.DBTX
}

// NewSQLiteRolePermissionRepo creates a new SQLiteRolePermissionRepo.
func NewSQLiteRolePermissionRepo(conn db.DBTX) *SQLiteRolePermissionRepo {
	return &SQLiteRolePermissionRepo{db: conn}
}

func (r *SQLiteRolePermissionRepo) Get(ctx context.Context, laboratoryID, roleName string) (*domain.RolePermissionDocument, error) {
	query := `SELECT permissions FROM role_permissions
		WHERE laboratory_id = ? AND role_name = ?`
	var raw string
	err := r.db.QueryRowContext(ctx, query, laboratoryID, roleName).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("role permissions: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("loading role permissions: %w", err)
	}
	return domain.ParseRolePermissionDocument([]byte(raw))
}

func (r *SQLiteRolePermissionRepo) Upsert(ctx context.Context, laboratoryID, roleName string, raw []byte) error {
	// Validate before writing so a malformed blob never reaches the store.
	if _, err := domain.ParseRolePermissionDocument(raw); err != nil {
		return err
	}
	query := `INSERT OR REPLACE INTO role_permissions (laboratory_id, role_name, permissions, updated_at)
		VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, laboratoryID, roleName, string(raw),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting role permissions: %w", err)
	}
	return nil
}
