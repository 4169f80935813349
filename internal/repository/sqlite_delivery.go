package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adelorme/labflow/internal/db"
	"github.com/adelorme/labflow/internal/domain"
)

// deliveryColumns is the canonical SELECT column list for deliveries.
const deliveryColumns = `id, laboratory_id, delivery_number, patient_name, dentist_name,
		current_stage_id, progress_percentage, status, priority, is_blocked,
		due_date, created_at, updated_at`

// SQLiteDeliveryRepo implements DeliveryRepo using a SQLite database.
type SQLiteDeliveryRepo struct {
	db db.DBTX
}

// NewSQLiteDeliveryRepo creates a new SQLiteDeliveryRepo.
func NewSQLiteDeliveryRepo(conn db.DBTX) *SQLiteDeliveryRepo {
	return &SQLiteDeliveryRepo{db: conn}
}

func (r *SQLiteDeliveryRepo) Create(ctx context.Context, d *domain.Delivery) error {
	query := `INSERT INTO deliveries (` + deliveryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.LaboratoryID,
		d.DeliveryNumber,
		d.PatientName,
		d.DentistName,
		nullableStrToValue(d.CurrentStageID),
		d.ProgressPercentage,
		string(d.Status),
		string(d.Priority),
		boolToInt(d.IsBlocked),
		nullableTimeToString(d.DueDate, dateLayout),
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting delivery: %w", err)
	}
	return nil
}

func (r *SQLiteDeliveryRepo) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = ?`
	d, err := r.scanDelivery(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadAssignments(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *SQLiteDeliveryRepo) GetByNumber(ctx context.Context, laboratoryID, deliveryNumber string) (*domain.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries
		WHERE laboratory_id = ? AND delivery_number = ?`
	d, err := r.scanDelivery(r.db.QueryRowContext(ctx, query, laboratoryID, deliveryNumber))
	if err != nil {
		return nil, err
	}
	if err := r.loadAssignments(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *SQLiteDeliveryRepo) ListByLaboratory(ctx context.Context, laboratoryID string) ([]*domain.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries
		WHERE laboratory_id = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, laboratoryID)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}
	defer rows.Close()

	deliveries, err := r.scanDeliveries(rows)
	if err != nil {
		return nil, err
	}
	if len(deliveries) == 0 {
		return deliveries, nil
	}

	byID := make(map[string]*domain.Delivery, len(deliveries))
	for _, d := range deliveries {
		byID[d.ID] = d
	}

	assignQuery := `SELECT a.delivery_id, a.employee_id, a.assigned_at
		FROM delivery_assignments a
		JOIN deliveries d ON a.delivery_id = d.id
		WHERE d.laboratory_id = ?
		ORDER BY a.assigned_at`
	assignRows, err := r.db.QueryContext(ctx, assignQuery, laboratoryID)
	if err != nil {
		return nil, fmt.Errorf("listing delivery assignments: %w", err)
	}
	defer assignRows.Close()

	for assignRows.Next() {
		var a domain.Assignment
		var assignedAt string
		if err := assignRows.Scan(&a.DeliveryID, &a.EmployeeID, &assignedAt); err != nil {
			return nil, fmt.Errorf("scanning delivery assignment: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, assignedAt); err == nil {
			a.AssignedAt = t
		}
		if d, ok := byID[a.DeliveryID]; ok {
			d.Assignments = append(d.Assignments, a)
		}
	}
	if err := assignRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery assignments: %w", err)
	}
	return deliveries, nil
}

func (r *SQLiteDeliveryRepo) Update(ctx context.Context, d *domain.Delivery) error {
	query := `UPDATE deliveries SET delivery_number = ?, patient_name = ?, dentist_name = ?,
		current_stage_id = ?, progress_percentage = ?, status = ?, priority = ?,
		is_blocked = ?, due_date = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		d.DeliveryNumber,
		d.PatientName,
		d.DentistName,
		nullableStrToValue(d.CurrentStageID),
		d.ProgressPercentage,
		string(d.Status),
		string(d.Priority),
		boolToInt(d.IsBlocked),
		nullableTimeToString(d.DueDate, dateLayout),
		d.UpdatedAt.Format(time.RFC3339),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating delivery: %w", err)
	}
	return requireRow(res, "delivery")
}

func (r *SQLiteDeliveryRepo) UpdateStage(ctx context.Context, id string, stageID *string, progress int, status domain.WorkStatus, updatedAt time.Time) error {
	query := `UPDATE deliveries SET current_stage_id = ?, progress_percentage = ?,
		status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableStrToValue(stageID),
		progress,
		string(status),
		updatedAt.Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating delivery stage: %w", err)
	}
	return requireRow(res, "delivery")
}

func (r *SQLiteDeliveryRepo) MarkDelivered(ctx context.Context, id string, updatedAt time.Time) error {
	query := `UPDATE deliveries SET progress_percentage = 100, status = 'completed',
		updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, updatedAt.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("marking delivery delivered: %w", err)
	}
	return requireRow(res, "delivery")
}

func (r *SQLiteDeliveryRepo) Assign(ctx context.Context, deliveryID, employeeID string, at time.Time) error {
	query := `INSERT OR IGNORE INTO delivery_assignments (delivery_id, employee_id, assigned_at)
		VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, deliveryID, employeeID, at.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("assigning delivery: %w", err)
	}
	return nil
}

func (r *SQLiteDeliveryRepo) Unassign(ctx context.Context, deliveryID, employeeID string) error {
	query := `DELETE FROM delivery_assignments WHERE delivery_id = ? AND employee_id = ?`
	_, err := r.db.ExecContext(ctx, query, deliveryID, employeeID)
	if err != nil {
		return fmt.Errorf("unassigning delivery: %w", err)
	}
	return nil
}

func (r *SQLiteDeliveryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deliveries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting delivery: %w", err)
	}
	return requireRow(res, "delivery")
}

// scanDelivery scans a single delivery from a *sql.Row.
func (r *SQLiteDeliveryRepo) scanDelivery(row *sql.Row) (*domain.Delivery, error) {
	var d domain.Delivery
	var stageID, dueDate sql.NullString
	var statusStr, priorityStr string
	var isBlocked int
	var createdAt, updatedAt string

	err := row.Scan(
		&d.ID,
		&d.LaboratoryID,
		&d.DeliveryNumber,
		&d.PatientName,
		&d.DentistName,
		&stageID,
		&d.ProgressPercentage,
		&statusStr,
		&priorityStr,
		&isBlocked,
		&dueDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("delivery: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning delivery: %w", err)
	}

	if stageID.Valid && stageID.String != "" {
		s := stageID.String
		d.CurrentStageID = &s
	}
	d.Status = domain.WorkStatus(statusStr)
	d.Priority = domain.Priority(priorityStr)
	d.IsBlocked = intToBool(isBlocked)
	d.DueDate = parseNullableTime(dueDate, dateLayout)
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &d, nil
}

// scanDeliveries scans all deliveries from a *sql.Rows.
func (r *SQLiteDeliveryRepo) scanDeliveries(rows *sql.Rows) ([]*domain.Delivery, error) {
	var deliveries []*domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		var stageID, dueDate sql.NullString
		var statusStr, priorityStr string
		var isBlocked int
		var createdAt, updatedAt string

		err := rows.Scan(
			&d.ID,
			&d.LaboratoryID,
			&d.DeliveryNumber,
			&d.PatientName,
			&d.DentistName,
			&stageID,
			&d.ProgressPercentage,
			&statusStr,
			&priorityStr,
			&isBlocked,
			&dueDate,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning delivery row: %w", err)
		}

		if stageID.Valid && stageID.String != "" {
			s := stageID.String
			d.CurrentStageID = &s
		}
		d.Status = domain.WorkStatus(statusStr)
		d.Priority = domain.Priority(priorityStr)
		d.IsBlocked = intToBool(isBlocked)
		d.DueDate = parseNullableTime(dueDate, dateLayout)
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		deliveries = append(deliveries, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery rows: %w", err)
	}
	return deliveries, nil
}

// loadAssignments fills d.Assignments for a single delivery.
func (r *SQLiteDeliveryRepo) loadAssignments(ctx context.Context, d *domain.Delivery) error {
	query := `SELECT delivery_id, employee_id, assigned_at FROM delivery_assignments
		WHERE delivery_id = ? ORDER BY assigned_at`
	rows, err := r.db.QueryContext(ctx, query, d.ID)
	if err != nil {
		return fmt.Errorf("loading delivery assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Assignment
		var assignedAt string
		if err := rows.Scan(&a.DeliveryID, &a.EmployeeID, &assignedAt); err != nil {
			return fmt.Errorf("scanning delivery assignment: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, assignedAt); err == nil {
			a.AssignedAt = t
		}
		d.Assignments = append(d.Assignments, a)
	}
	return rows.Err()
}

// requireRow converts a zero-row UPDATE/DELETE into ErrNotFound.
func requireRow(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return nil
}
