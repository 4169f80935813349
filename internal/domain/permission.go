package domain

import (
	"encoding/json"
	"fmt"
)

// PermissionEnvelope is the resolved view/edit authorization for one
// principal. It is computed once per invocation and passed by value into the
// filter, the transition engine, and the board; nothing reads ambient state.
type PermissionEnvelope struct {
	IsEmployee        bool
	IsLaboratoryOwner bool

	// EmployeeID is set on the employee path and used by assigned-only
	// filtering. Empty for owners and unresolved principals.
	EmployeeID string

	CanViewAllWorks     bool
	CanViewAssignedOnly bool

	// AllowedStages holds portable catalog stage ids. An empty set combined
	// with CanEditAllStages=true means "all stages", not "none".
	AllowedStages    map[string]bool
	CanEditAllStages bool
}

// OwnerEnvelope is the full-access envelope for the laboratory's owning account.
func OwnerEnvelope() PermissionEnvelope {
	return PermissionEnvelope{
		IsLaboratoryOwner: true,
		CanViewAllWorks:   true,
		CanEditAllStages:  true,
		AllowedStages:     map[string]bool{},
	}
}

// NoAccessEnvelope denies everything. Used for unresolved principals and as
// the fail-closed result when permission loading fails.
func NoAccessEnvelope() PermissionEnvelope {
	return PermissionEnvelope{AllowedStages: map[string]bool{}}
}

// CanAccessStage reports whether the principal may access the stage.
func (e PermissionEnvelope) CanAccessStage(stageID string) bool {
	if e.CanEditAllStages {
		return true
	}
	return e.AllowedStages[stageID]
}

// CanEditStage is identical to CanAccessStage; there is no separate
// read/write distinction at the stage level.
func (e PermissionEnvelope) CanEditStage(stageID string) bool {
	return e.CanAccessStage(stageID)
}

// StageRef is a tenant-local stage reference as stored in a role-permission
// document. Only the name is used to resolve it against the shared catalog.
type StageRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WorkManagementPermissions is the workManagement sub-object of a
// role-permission document. Pointer fields distinguish "absent" from "false"
// so each default is applied explicitly.
type WorkManagementPermissions struct {
	ViewAllWorks     *bool      `json:"viewAllWorks"`
	ViewAssignedOnly *bool      `json:"viewAssignedOnly"`
	AllowedStages    []StageRef `json:"allowedStages"`
	CanEditAllStages *bool      `json:"canEditAllStages"`
}

// RolePermissionDocument is the stored permission blob for a (laboratory,
// role) pair.
type RolePermissionDocument struct {
	Permissions struct {
		WorkManagement WorkManagementPermissions `json:"workManagement"`
	} `json:"permissions"`
}

// ParseRolePermissionDocument decodes the stored JSON blob. An empty blob is
// valid and yields a document whose defaults apply everywhere.
func ParseRolePermissionDocument(raw []byte) (*RolePermissionDocument, error) {
	doc := &RolePermissionDocument{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("parsing role permission document: %w", err)
	}
	return doc, nil
}

// WorkManagement returns the sub-object with defaults resolved:
// view flags default closed, canEditAllStages defaults open.
func (d *RolePermissionDocument) WorkManagement() (viewAll, assignedOnly, editAll bool, stages []StageRef) {
	wm := d.Permissions.WorkManagement
	viewAll = BoolFromPtrWithDefault(false, wm.ViewAllWorks)
	assignedOnly = BoolFromPtrWithDefault(false, wm.ViewAssignedOnly)
	editAll = BoolFromPtrWithDefault(true, wm.CanEditAllStages)
	stages = wm.AllowedStages
	return viewAll, assignedOnly, editAll, stages
}

// BoolFromPtrWithDefault returns the first non-nil *bool value, or the
// fallback. Permission documents use pointer booleans so an absent flag is
// distinguishable from an explicit false.
func BoolFromPtrWithDefault(fallback bool, ptrs ...*bool) bool {
	for _, p := range ptrs {
		if p != nil {
			return *p
		}
	}
	return fallback
}
