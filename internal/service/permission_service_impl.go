package service

import (
	"context"
	"errors"
	"time"

	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/repository"
	"github.com/adelorme/labflow/internal/stage"
)

type permissionService struct {
	laboratories repository.LaboratoryRepo
	employees    repository.EmployeeRepo
	rolePerms    repository.RolePermissionRepo
	catalog      *stage.Catalog
	observer     OperationObserver
}

// NewPermissionService creates the permission resolver. An optional observer
// receives resolution events, including degraded fail-closed outcomes.
func NewPermissionService(
	laboratories repository.LaboratoryRepo,
	employees repository.EmployeeRepo,
	rolePerms repository.RolePermissionRepo,
	catalog *stage.Catalog,
	observers ...OperationObserver,
) PermissionService {
	return &permissionService{
		laboratories: laboratories,
		employees:    employees,
		rolePerms:    rolePerms,
		catalog:      catalog,
		observer:     observerOrNoop(observers),
	}
}

// Resolve computes the caller's envelope. An active employee record takes
// precedence over ownership: an owner who also holds a staff role is
// resolved as that employee. Any lookup failure degrades to the fail-closed
// no-access envelope; errors are reported through the observer, never to
// the caller.
func (s *permissionService) Resolve(ctx context.Context, accountID string) domain.PermissionEnvelope {
	start := time.Now()

	env, err := s.resolve(ctx, accountID)
	s.observer.Observe(ctx, OperationEvent{
		Op:      "permission_resolve",
		Elapsed: time.Since(start),
		Err:     err,
		Attrs: map[string]any{
			"employee": env.IsEmployee,
			"owner":    env.IsLaboratoryOwner,
		},
	})
	return env
}

func (s *permissionService) resolve(ctx context.Context, accountID string) (domain.PermissionEnvelope, error) {
	if accountID == "" {
		return domain.NoAccessEnvelope(), nil
	}

	emp, err := s.employees.GetByAccountID(ctx, accountID)
	switch {
	case err == nil && emp.IsActive:
		return s.employeeEnvelope(ctx, emp)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return domain.NoAccessEnvelope(), err
	}

	lab, err := s.laboratories.GetDefault(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NoAccessEnvelope(), nil
		}
		return domain.NoAccessEnvelope(), err
	}
	if lab.OwnerAccountID == accountID {
		return domain.OwnerEnvelope(), nil
	}

	return domain.NoAccessEnvelope(), nil
}

func (s *permissionService) employeeEnvelope(ctx context.Context, emp *domain.Employee) (domain.PermissionEnvelope, error) {
	env := domain.PermissionEnvelope{
		IsEmployee:    true,
		EmployeeID:    emp.ID,
		AllowedStages: map[string]bool{},
	}

	doc, err := s.rolePerms.Get(ctx, emp.LaboratoryID, emp.RoleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No stored document: defaults apply (view flags closed,
			// canEditAllStages open).
			doc = &domain.RolePermissionDocument{}
		} else {
			return domain.NoAccessEnvelope(), err
		}
	}

	viewAll, assignedOnly, editAll, refs := doc.WorkManagement()
	env.CanViewAllWorks = viewAll
	env.CanViewAssignedOnly = assignedOnly
	env.CanEditAllStages = editAll
	env.AllowedStages = translateStageRefs(s.catalog, refs)
	return env, nil
}

// translateStageRefs maps tenant-local stage references to portable catalog
// ids by case-insensitive name match. References that resolve to no catalog
// entry are dropped silently.
func translateStageRefs(catalog *stage.Catalog, refs []domain.StageRef) map[string]bool {
	allowed := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if s, ok := catalog.ByName(ref.Name); ok {
			allowed[s.ID] = true
		}
	}
	return allowed
}

func (s *permissionService) SetRolePermissions(ctx context.Context, laboratoryID, roleName string, raw []byte) error {
	return s.rolePerms.Upsert(ctx, laboratoryID, roleName, raw)
}

func (s *permissionService) GetRolePermissions(ctx context.Context, laboratoryID, roleName string) (*domain.RolePermissionDocument, error) {
	doc, err := s.rolePerms.Get(ctx, laboratoryID, roleName)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.RolePermissionDocument{}, nil
	}
	return doc, err
}
