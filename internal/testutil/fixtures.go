package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/adelorme/labflow/internal/domain"
	"github.com/google/uuid"
)

var testDeliveryCounter atomic.Int64

// NewTestLaboratory builds a laboratory owned by the given account.
func NewTestLaboratory(ownerAccountID string) *domain.Laboratory {
	now := time.Now().UTC()
	return &domain.Laboratory{
		ID:             uuid.New().String(),
		Name:           "Test Dental Lab",
		OwnerAccountID: ownerAccountID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Employee options
type EmployeeOption func(*domain.Employee)

func WithRole(role string) EmployeeOption {
	return func(e *domain.Employee) {
		e.RoleName = role
	}
}

func WithInactive() EmployeeOption {
	return func(e *domain.Employee) {
		e.IsActive = false
	}
}

func NewTestEmployee(laboratoryID, accountID string, opts ...EmployeeOption) *domain.Employee {
	now := time.Now().UTC()
	e := &domain.Employee{
		ID:           uuid.New().String(),
		AccountID:    accountID,
		LaboratoryID: laboratoryID,
		Name:         "Test Technician",
		RoleName:     "technician",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Delivery options
type DeliveryOption func(*domain.Delivery)

func WithStage(stageID string) DeliveryOption {
	return func(d *domain.Delivery) {
		d.CurrentStageID = &stageID
	}
}

func WithProgress(pct int, status domain.WorkStatus) DeliveryOption {
	return func(d *domain.Delivery) {
		d.ProgressPercentage = pct
		d.Status = status
	}
}

func WithPriority(p domain.Priority) DeliveryOption {
	return func(d *domain.Delivery) {
		d.Priority = p
	}
}

func WithDueDate(t time.Time) DeliveryOption {
	return func(d *domain.Delivery) {
		d.DueDate = &t
	}
}

func WithPatient(name string) DeliveryOption {
	return func(d *domain.Delivery) {
		d.PatientName = name
	}
}

func WithDentist(name string) DeliveryOption {
	return func(d *domain.Delivery) {
		d.DentistName = name
	}
}

func WithAssignment(employeeID string) DeliveryOption {
	return func(d *domain.Delivery) {
		d.Assignments = append(d.Assignments, domain.Assignment{
			DeliveryID: d.ID,
			EmployeeID: employeeID,
			AssignedAt: time.Now().UTC(),
		})
	}
}

func NewTestDelivery(laboratoryID string, opts ...DeliveryOption) *domain.Delivery {
	now := time.Now().UTC()
	n := testDeliveryCounter.Add(1)
	d := &domain.Delivery{
		ID:             uuid.New().String(),
		LaboratoryID:   laboratoryID,
		DeliveryNumber: fmt.Sprintf("DL-%04d", n),
		PatientName:    "Patient Doe",
		DentistName:    "Dr. Smith",
		Status:         domain.StatusPending,
		Priority:       domain.PriorityNormal,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RolePermissionJSON renders a workManagement permission blob for tests.
// Pass allowed stage refs as display names; ids are synthetic tenant-local ones.
func RolePermissionJSON(viewAll, assignedOnly, editAll bool, stageNames ...string) []byte {
	doc := fmt.Sprintf(`{"permissions":{"workManagement":{"viewAllWorks":%t,"viewAssignedOnly":%t,"canEditAllStages":%t,"allowedStages":[`,
		viewAll, assignedOnly, editAll)
	for i, name := range stageNames {
		if i > 0 {
			doc += ","
		}
		doc += fmt.Sprintf(`{"id":"ref-%d","name":"%s"}`, i+1, name)
	}
	return []byte(doc + `]}}}`)
}
