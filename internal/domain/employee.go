package domain

import "time"

// Employee is a staff member of a laboratory. AccountID ties the row to the
// authenticated principal; absence of a row means "not an employee".
type Employee struct {
	ID           string
	AccountID    string
	LaboratoryID string
	Name         string
	RoleName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Laboratory is the tenant. OwnerAccountID identifies the owning account,
// which bypasses all stage restrictions.
type Laboratory struct {
	ID             string
	Name           string
	OwnerAccountID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
