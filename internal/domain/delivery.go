package domain

import "time"

// Delivery is a unit of dental lab work tracked through the pipeline.
type Delivery struct {
	ID             string
	LaboratoryID   string
	DeliveryNumber string
	PatientName    string
	DentistName    string

	// CurrentStageID is nil while the item has not been assigned to any
	// stage. That is a distinct state from being in the first stage.
	CurrentStageID *string

	// ProgressPercentage and Status are derived from the current stage;
	// transitions update both together, never one alone.
	ProgressPercentage int
	Status             WorkStatus

	Priority  Priority
	IsBlocked bool
	DueDate   *time.Time

	Assignments []Assignment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assignment links a delivery to an employee working on it.
type Assignment struct {
	DeliveryID string
	EmployeeID string
	AssignedAt time.Time
}

// AssignedTo reports whether the delivery has an assignment for the employee.
func (d *Delivery) AssignedTo(employeeID string) bool {
	for _, a := range d.Assignments {
		if a.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

// StageID returns the current stage id or "" when unassigned.
func (d *Delivery) StageID() string {
	if d.CurrentStageID == nil {
		return ""
	}
	return *d.CurrentStageID
}
