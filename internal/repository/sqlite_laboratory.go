package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adelorme/labflow/internal/db"
	"github.com/adelorme/labflow/internal/domain"
)

// SQLiteLaboratoryRepo implements LaboratoryRepo using a SQLite database.
type SQLiteLaboratoryRepo struct {
	db db.DBTX
}

// NewSQLiteLaboratoryRepo creates a new SQLiteLaboratoryRepo.
func NewSQLiteLaboratoryRepo(conn db.DBTX) *SQLiteLaboratoryRepo {
	return &SQLiteLaboratoryRepo{db: conn}
}

func (r *SQLiteLaboratoryRepo) Create(ctx context.Context, l *domain.Laboratory) error {
	query := `INSERT INTO laboratories (id, name, owner_account_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.Name,
		l.OwnerAccountID,
		l.CreatedAt.Format(time.RFC3339),
		l.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting laboratory: %w", err)
	}
	return nil
}

func (r *SQLiteLaboratoryRepo) GetByID(ctx context.Context, id string) (*domain.Laboratory, error) {
	query := `SELECT id, name, owner_account_id, created_at, updated_at
		FROM laboratories WHERE id = ?`
	return r.scanLaboratory(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteLaboratoryRepo) GetDefault(ctx context.Context) (*domain.Laboratory, error) {
	query := `SELECT id, name, owner_account_id, created_at, updated_at
		FROM laboratories ORDER BY created_at LIMIT 1`
	return r.scanLaboratory(r.db.QueryRowContext(ctx, query))
}

func (r *SQLiteLaboratoryRepo) scanLaboratory(row *sql.Row) (*domain.Laboratory, error) {
	var l domain.Laboratory
	var createdAt, updatedAt string
	err := row.Scan(&l.ID, &l.Name, &l.OwnerAccountID, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("laboratory: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning laboratory: %w", err)
	}
	l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	l.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &l, nil
}
