package service

import (
	"context"

	"github.com/adelorme/labflow/internal/domain"
)

// PermissionService resolves the authorization envelope for a principal.
type PermissionService interface {
	// Resolve computes the envelope for the given account. It never returns
	// an error: lookup failures degrade to the fail-closed no-access
	// envelope and are logged.
	Resolve(ctx context.Context, accountID string) domain.PermissionEnvelope

	// SetRolePermissions stores the raw permission document for a role.
	SetRolePermissions(ctx context.Context, laboratoryID, roleName string, raw []byte) error
	// GetRolePermissions loads the stored document; absence yields a
	// document whose defaults apply.
	GetRolePermissions(ctx context.Context, laboratoryID, roleName string) (*domain.RolePermissionDocument, error)
}

// WorkflowService validates and executes stage transitions.
type WorkflowService interface {
	// RequestTransition moves a delivery to the target stage, recomputing
	// progress and status. Fails with ErrUnknownStage or ErrStageNotAllowed.
	RequestTransition(ctx context.Context, env domain.PermissionEnvelope, deliveryID, targetStageID string) (*domain.Delivery, error)
	// AdvanceToNext moves a delivery to the stage after its current one;
	// an unassigned delivery enters the first stage. Fails with
	// ErrNoNextStage at the terminal stage.
	AdvanceToNext(ctx context.Context, env domain.PermissionEnvelope, deliveryID string) (*domain.Delivery, error)
	// MarkDelivered sets progress to 100 and status to completed. This is
	// the only path to 100% progress. It performs no stage-edit check.
	MarkDelivered(ctx context.Context, env domain.PermissionEnvelope, deliveryID string) (*domain.Delivery, error)
}

// DeliveryService manages delivery records around the workflow core.
type DeliveryService interface {
	Create(ctx context.Context, d *domain.Delivery) error
	GetByID(ctx context.Context, id string) (*domain.Delivery, error)
	GetByNumber(ctx context.Context, laboratoryID, deliveryNumber string) (*domain.Delivery, error)
	ListByLaboratory(ctx context.Context, laboratoryID string) ([]*domain.Delivery, error)
	// ListVisible lists the laboratory's deliveries narrowed by the
	// caller's envelope and filter options.
	ListVisible(ctx context.Context, laboratoryID string, env domain.PermissionEnvelope, opts FilterOptions) ([]*domain.Delivery, error)
	// Update persists metadata edits (patient, dentist, priority, due date,
	// blocked flag). Stage and progress go through the WorkflowService.
	Update(ctx context.Context, d *domain.Delivery) error
	Assign(ctx context.Context, deliveryID, employeeID string) error
	Unassign(ctx context.Context, deliveryID, employeeID string) error
	Delete(ctx context.Context, id string) error
}

// EmployeeService manages laboratory staff records.
type EmployeeService interface {
	Create(ctx context.Context, e *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	ListByLaboratory(ctx context.Context, laboratoryID string) ([]*domain.Employee, error)
	Update(ctx context.Context, e *domain.Employee) error
}

// LaboratoryService manages the tenant record.
type LaboratoryService interface {
	Create(ctx context.Context, l *domain.Laboratory) error
	GetDefault(ctx context.Context) (*domain.Laboratory, error)
}
