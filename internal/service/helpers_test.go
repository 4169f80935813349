package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/repository"
	"github.com/adelorme/labflow/internal/stage"
	"github.com/adelorme/labflow/internal/testutil"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db           *sql.DB
	lab          *domain.Laboratory
	laboratories repository.LaboratoryRepo
	employees    repository.EmployeeRepo
	rolePerms    repository.RolePermissionRepo
	deliveries   repository.DeliveryRepo
	catalog      *stage.Catalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	env := &testEnv{
		db:           database,
		laboratories: repository.NewSQLiteLaboratoryRepo(database),
		employees:    repository.NewSQLiteEmployeeRepo(database),
		rolePerms:    repository.NewSQLiteRolePermissionRepo(database),
		deliveries:   repository.NewSQLiteDeliveryRepo(database),
		catalog:      stage.Default(),
	}

	env.lab = testutil.NewTestLaboratory("owner-acct")
	require.NoError(t, env.laboratories.Create(context.Background(), env.lab))
	return env
}

func (e *testEnv) permissions(t *testing.T) PermissionService {
	t.Helper()
	return NewPermissionService(e.laboratories, e.employees, e.rolePerms, e.catalog)
}

func (e *testEnv) workflow(t *testing.T) WorkflowService {
	t.Helper()
	return NewWorkflowService(e.deliveries, e.catalog, testutil.NewTestUoW(e.db))
}

func (e *testEnv) addEmployee(t *testing.T, accountID string, opts ...testutil.EmployeeOption) *domain.Employee {
	t.Helper()
	emp := testutil.NewTestEmployee(e.lab.ID, accountID, opts...)
	require.NoError(t, e.employees.Create(context.Background(), emp))
	return emp
}

func (e *testEnv) addDelivery(t *testing.T, opts ...testutil.DeliveryOption) *domain.Delivery {
	t.Helper()
	d := testutil.NewTestDelivery(e.lab.ID, opts...)
	require.NoError(t, e.deliveries.Create(context.Background(), d))
	for _, a := range d.Assignments {
		require.NoError(t, e.deliveries.Assign(context.Background(), d.ID, a.EmployeeID, a.AssignedAt))
	}
	return d
}

func (e *testEnv) setRolePermissions(t *testing.T, roleName string, raw []byte) {
	t.Helper()
	require.NoError(t, e.rolePerms.Upsert(context.Background(), e.lab.ID, roleName, raw))
}
