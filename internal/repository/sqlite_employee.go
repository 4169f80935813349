package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adelorme/labflow/internal/db"
	"github.com/adelorme/labflow/internal/domain"
)

// employeeColumns is the canonical SELECT column list for employees.
const employeeColumns = `id, account_id, laboratory_id, name, role_name, is_active,
		created_at, updated_at`

// SQLiteEmployeeRepo implements EmployeeRepo using a SQLite database.
type SQLiteEmployeeRepo struct {
	db db.DBTX
}

// NewSQLiteEmployeeRepo creates a new SQLiteEmployeeRepo.
func NewSQLiteEmployeeRepo(conn db.DBTX) *SQLiteEmployeeRepo {
	return &SQLiteEmployeeRepo{db: conn}
}

func (r *SQLiteEmployeeRepo) Create(ctx context.Context, e *domain.Employee) error {
	query := `INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.AccountID,
		e.LaboratoryID,
		e.Name,
		e.RoleName,
		boolToInt(e.IsActive),
		e.CreatedAt.Format(time.RFC3339),
		e.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting employee: %w", err)
	}
	return nil
}

func (r *SQLiteEmployeeRepo) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`
	return r.scanEmployee(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteEmployeeRepo) GetByAccountID(ctx context.Context, accountID string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE account_id = ?`
	return r.scanEmployee(r.db.QueryRowContext(ctx, query, accountID))
}

func (r *SQLiteEmployeeRepo) ListByLaboratory(ctx context.Context, laboratoryID string) ([]*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
		WHERE laboratory_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, laboratoryID)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		var e domain.Employee
		var isActive int
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.AccountID, &e.LaboratoryID, &e.Name, &e.RoleName,
			&isActive, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning employee row: %w", err)
		}
		e.IsActive = intToBool(isActive)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		employees = append(employees, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating employee rows: %w", err)
	}
	return employees, nil
}

func (r *SQLiteEmployeeRepo) Update(ctx context.Context, e *domain.Employee) error {
	query := `UPDATE employees SET name = ?, role_name = ?, is_active = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		e.Name,
		e.RoleName,
		boolToInt(e.IsActive),
		e.UpdatedAt.Format(time.RFC3339),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating employee: %w", err)
	}
	return requireRow(res, "employee")
}

func (r *SQLiteEmployeeRepo) scanEmployee(row *sql.Row) (*domain.Employee, error) {
	var e domain.Employee
	var isActive int
	var createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.AccountID, &e.LaboratoryID, &e.Name, &e.RoleName,
		&isActive, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("employee: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning employee: %w", err)
	}
	e.IsActive = intToBool(isActive)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}
