package repository

import (
	"context"
	"errors"
	"time"

	"github.com/adelorme/labflow/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist. Callers branch
// with errors.Is; for employee and role-permission lookups absence is a normal
// outcome, not a failure.
var ErrNotFound = errors.New("not found")

type LaboratoryRepo interface {
	Create(ctx context.Context, l *domain.Laboratory) error
	GetByID(ctx context.Context, id string) (*domain.Laboratory, error)
	// GetDefault returns the first laboratory. The CLI operates on a single
	// tenant database; multi-lab hosting keeps one database per lab.
	GetDefault(ctx context.Context) (*domain.Laboratory, error)
}

type EmployeeRepo interface {
	Create(ctx context.Context, e *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByAccountID(ctx context.Context, accountID string) (*domain.Employee, error)
	ListByLaboratory(ctx context.Context, laboratoryID string) ([]*domain.Employee, error)
	Update(ctx context.Context, e *domain.Employee) error
}

type RolePermissionRepo interface {
	// Get returns the parsed permission document for (laboratory, role).
	// Absence is reported as ErrNotFound.
	Get(ctx context.Context, laboratoryID, roleName string) (*domain.RolePermissionDocument, error)
	Upsert(ctx context.Context, laboratoryID, roleName string, raw []byte) error
}

type DeliveryRepo interface {
	Create(ctx context.Context, d *domain.Delivery) error
	GetByID(ctx context.Context, id string) (*domain.Delivery, error)
	GetByNumber(ctx context.Context, laboratoryID, deliveryNumber string) (*domain.Delivery, error)
	// ListByLaboratory returns all deliveries with assignments loaded,
	// ordered by creation time.
	ListByLaboratory(ctx context.Context, laboratoryID string) ([]*domain.Delivery, error)
	Update(ctx context.Context, d *domain.Delivery) error
	// UpdateStage is the stage-transition write: current stage, derived
	// progress and status, and the update timestamp in one statement.
	UpdateStage(ctx context.Context, id string, stageID *string, progress int, status domain.WorkStatus, updatedAt time.Time) error
	// MarkDelivered is the mark-delivered write: progress 100, completed.
	MarkDelivered(ctx context.Context, id string, updatedAt time.Time) error
	Assign(ctx context.Context, deliveryID, employeeID string, at time.Time) error
	Unassign(ctx context.Context, deliveryID, employeeID string) error
	Delete(ctx context.Context, id string) error
}
