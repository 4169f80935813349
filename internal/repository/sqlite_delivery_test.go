package repository

import (
	"context"
	"testing"
	"time"

	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDeliveryRepo(t *testing.T) (*SQLiteDeliveryRepo, *SQLiteEmployeeRepo, *domain.Laboratory) {
	t.Helper()
	database := testutil.NewTestDB(t)
	labRepo := NewSQLiteLaboratoryRepo(database)
	lab := testutil.NewTestLaboratory("owner-acct")
	require.NoError(t, labRepo.Create(context.Background(), lab))
	return NewSQLiteDeliveryRepo(database), NewSQLiteEmployeeRepo(database), lab
}

func TestDeliveryRepo_CreateAndGet(t *testing.T) {
	repo, _, lab := setupDeliveryRepo(t)
	ctx := context.Background()

	due := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	d := testutil.NewTestDelivery(lab.ID,
		testutil.WithStage("stage-modeling"),
		testutil.WithProgress(17, domain.StatusInProgress),
		testutil.WithPriority(domain.PriorityUrgent),
		testutil.WithDueDate(due),
	)
	require.NoError(t, repo.Create(ctx, d))

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.DeliveryNumber, got.DeliveryNumber)
	require.NotNil(t, got.CurrentStageID)
	assert.Equal(t, "stage-modeling", *got.CurrentStageID)
	assert.Equal(t, 17, got.ProgressPercentage)
	assert.Equal(t, domain.StatusInProgress, got.Status)
	assert.Equal(t, domain.PriorityUrgent, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, due.Format("2006-01-02"), got.DueDate.Format("2006-01-02"))
}

func TestDeliveryRepo_NullStageRoundTrip(t *testing.T) {
	repo, _, lab := setupDeliveryRepo(t)
	ctx := context.Background()

	d := testutil.NewTestDelivery(lab.ID)
	require.NoError(t, repo.Create(ctx, d))

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CurrentStageID, "unassigned is distinct from stage 1")
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestDeliveryRepo_GetByID_NotFound(t *testing.T) {
	repo, _, _ := setupDeliveryRepo(t)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeliveryRepo_GetByNumber(t *testing.T) {
	repo, _, lab := setupDeliveryRepo(t)
	ctx := context.Background()

	d := testutil.NewTestDelivery(lab.ID)
	require.NoError(t, repo.Create(ctx, d))

	got, err := repo.GetByNumber(ctx, lab.ID, d.DeliveryNumber)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	_, err = repo.GetByNumber(ctx, lab.ID, "DL-9999x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeliveryRepo_UpdateStage(t *testing.T) {
	repo, _, lab := setupDeliveryRepo(t)
	ctx := context.Background()

	d := testutil.NewTestDelivery(lab.ID)
	require.NoError(t, repo.Create(ctx, d))

	stageID := "stage-production"
	now := time.Now().UTC()
	require.NoError(t, repo.UpdateStage(ctx, d.ID, &stageID, 33, domain.StatusInProgress, now))

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentStageID)
	assert.Equal(t, stageID, *got.CurrentStageID)
	assert.Equal(t, 33, got.ProgressPercentage)
	assert.Equal(t, domain.StatusInProgress, got.Status)

	assert.ErrorIs(t, repo.UpdateStage(ctx, "missing", &stageID, 33, domain.StatusInProgress, now), ErrNotFound)
}

func TestDeliveryRepo_MarkDelivered(t *testing.T) {
	repo, _, lab := setupDeliveryRepo(t)
	ctx := context.Background()

	d := testutil.NewTestDelivery(lab.ID,
		testutil.WithStage("stage-quality-control"),
		testutil.WithProgress(67, domain.StatusInProgress))
	require.NoError(t, repo.Create(ctx, d))

	require.NoError(t, repo.MarkDelivered(ctx, d.ID, time.Now().UTC()))

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.ProgressPercentage)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.NotNil(t, got.CurrentStageID)
	assert.Equal(t, "stage-quality-control", *got.CurrentStageID,
		"mark-delivered leaves the stage alone")
}

func TestDeliveryRepo_Assignments(t *testing.T) {
	repo, empRepo, lab := setupDeliveryRepo(t)
	ctx := context.Background()

	emp := testutil.NewTestEmployee(lab.ID, "tech-acct")
	require.NoError(t, empRepo.Create(ctx, emp))

	d := testutil.NewTestDelivery(lab.ID)
	require.NoError(t, repo.Create(ctx, d))
	require.NoError(t, repo.Assign(ctx, d.ID, emp.ID, time.Now().UTC()))
	// Assigning twice is a no-op, not an error.
	require.NoError(t, repo.Assign(ctx, d.ID, emp.ID, time.Now().UTC()))

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, got.Assignments, 1)
	assert.Equal(t, emp.ID, got.Assignments[0].EmployeeID)

	require.NoError(t, repo.Unassign(ctx, d.ID, emp.ID))
	got, err = repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Assignments)
}

func TestDeliveryRepo_ListByLaboratory(t *testing.T) {
	repo, empRepo, lab := setupDeliveryRepo(t)
	ctx := context.Background()

	emp := testutil.NewTestEmployee(lab.ID, "tech-acct")
	require.NoError(t, empRepo.Create(ctx, emp))

	d1 := testutil.NewTestDelivery(lab.ID)
	d2 := testutil.NewTestDelivery(lab.ID, testutil.WithStage("stage-reception"))
	require.NoError(t, repo.Create(ctx, d1))
	require.NoError(t, repo.Create(ctx, d2))
	require.NoError(t, repo.Assign(ctx, d2.ID, emp.ID, time.Now().UTC()))

	list, err := repo.ListByLaboratory(ctx, lab.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[string]*domain.Delivery{list[0].ID: list[0], list[1].ID: list[1]}
	assert.Empty(t, byID[d1.ID].Assignments)
	require.Len(t, byID[d2.ID].Assignments, 1)
	assert.Equal(t, emp.ID, byID[d2.ID].Assignments[0].EmployeeID)
}

func TestDeliveryRepo_Delete(t *testing.T) {
	repo, _, lab := setupDeliveryRepo(t)
	ctx := context.Background()

	d := testutil.NewTestDelivery(lab.ID)
	require.NoError(t, repo.Create(ctx, d))
	require.NoError(t, repo.Delete(ctx, d.ID))

	_, err := repo.GetByID(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, d.ID), ErrNotFound)
}

func TestDeliveryRepo_DuplicateNumberRejected(t *testing.T) {
	repo, _, lab := setupDeliveryRepo(t)
	ctx := context.Background()

	d1 := testutil.NewTestDelivery(lab.ID)
	require.NoError(t, repo.Create(ctx, d1))

	d2 := testutil.NewTestDelivery(lab.ID)
	d2.DeliveryNumber = d1.DeliveryNumber
	assert.Error(t, repo.Create(ctx, d2))
}
