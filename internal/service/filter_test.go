package service

import (
	"testing"
	"time"

	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliveryNumbers(items []*domain.Delivery) []string {
	nums := make([]string, 0, len(items))
	for _, d := range items {
		nums = append(nums, d.DeliveryNumber)
	}
	return nums
}

func TestFilterVisible_OwnerSeesEverything(t *testing.T) {
	items := []*domain.Delivery{
		testutil.NewTestDelivery("lab", testutil.WithStage("stage-production")),
		testutil.NewTestDelivery("lab"),
	}

	got := FilterVisible(items, domain.OwnerEnvelope(), FilterOptions{})
	assert.Len(t, got, 2)
}

func TestFilterVisible_AssignedOnlyRestriction(t *testing.T) {
	mine := testutil.NewTestDelivery("lab", testutil.WithAssignment("emp-1"))
	theirs := testutil.NewTestDelivery("lab", testutil.WithAssignment("emp-2"))
	unassigned := testutil.NewTestDelivery("lab")

	env := domain.PermissionEnvelope{
		IsEmployee:          true,
		EmployeeID:          "emp-1",
		CanViewAssignedOnly: true,
		CanEditAllStages:    true,
		AllowedStages:       map[string]bool{},
	}

	got := FilterVisible([]*domain.Delivery{mine, theirs, unassigned}, env, FilterOptions{})
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
}

func TestFilterVisible_ViewAllWinsOverAssignedOnly(t *testing.T) {
	theirs := testutil.NewTestDelivery("lab", testutil.WithAssignment("emp-2"))

	env := domain.PermissionEnvelope{
		IsEmployee:          true,
		EmployeeID:          "emp-1",
		CanViewAllWorks:     true,
		CanViewAssignedOnly: true,
		CanEditAllStages:    true,
		AllowedStages:       map[string]bool{},
	}

	got := FilterVisible([]*domain.Delivery{theirs}, env, FilterOptions{})
	assert.Len(t, got, 1, "viewAllWorks overrides the assigned-only flag")
}

func TestFilterVisible_MyWorksOnlyToggle(t *testing.T) {
	mine := testutil.NewTestDelivery("lab", testutil.WithAssignment("emp-1"))
	theirs := testutil.NewTestDelivery("lab", testutil.WithAssignment("emp-2"))

	env := domain.PermissionEnvelope{
		IsEmployee:       true,
		EmployeeID:       "emp-1",
		CanViewAllWorks:  true,
		CanEditAllStages: true,
		AllowedStages:    map[string]bool{},
	}

	got := FilterVisible([]*domain.Delivery{mine, theirs}, env, FilterOptions{MyWorksOnly: true})
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
}

func TestFilterVisible_StageRestriction(t *testing.T) {
	visible := testutil.NewTestDelivery("lab", testutil.WithStage("stage-production"))
	hidden := testutil.NewTestDelivery("lab", testutil.WithStage("stage-finishing"))

	env := domain.PermissionEnvelope{
		IsEmployee:      true,
		CanViewAllWorks: true,
		AllowedStages:   map[string]bool{"stage-production": true},
	}

	got := FilterVisible([]*domain.Delivery{visible, hidden}, env, FilterOptions{})
	require.Len(t, got, 1)
	assert.Equal(t, visible.ID, got[0].ID)
}

func TestFilterVisible_UnassignedItemsAlwaysVisible(t *testing.T) {
	unassigned := testutil.NewTestDelivery("lab")

	env := domain.PermissionEnvelope{
		IsEmployee:      true,
		CanViewAllWorks: true,
		AllowedStages:   map[string]bool{}, // no stage allowed at all
	}

	got := FilterVisible([]*domain.Delivery{unassigned}, env, FilterOptions{})
	assert.Len(t, got, 1, "stage restriction never hides items without a stage")
}

func TestFilterVisible_Search(t *testing.T) {
	byNumber := testutil.NewTestDelivery("lab")
	byPatient := testutil.NewTestDelivery("lab", testutil.WithPatient("Marie Lavoie"))
	byDentist := testutil.NewTestDelivery("lab", testutil.WithDentist("Dr. Lavoine"))
	other := testutil.NewTestDelivery("lab", testutil.WithPatient("John Carter"))
	items := []*domain.Delivery{byNumber, byPatient, byDentist, other}

	got := FilterVisible(items, domain.OwnerEnvelope(), FilterOptions{SearchText: "LAVO"})
	assert.ElementsMatch(t,
		[]string{byPatient.DeliveryNumber, byDentist.DeliveryNumber},
		deliveryNumbers(got),
		"search is a case-insensitive substring over patient and dentist names")

	got = FilterVisible(items, domain.OwnerEnvelope(), FilterOptions{SearchText: byNumber.DeliveryNumber})
	require.Len(t, got, 1)
	assert.Equal(t, byNumber.ID, got[0].ID)
}

func TestFilterVisible_StatusAndPriority(t *testing.T) {
	urgent := testutil.NewTestDelivery("lab", testutil.WithPriority(domain.PriorityUrgent))
	done := testutil.NewTestDelivery("lab", testutil.WithProgress(100, domain.StatusCompleted))
	normal := testutil.NewTestDelivery("lab")
	items := []*domain.Delivery{urgent, done, normal}

	got := FilterVisible(items, domain.OwnerEnvelope(), FilterOptions{Priority: "urgent"})
	require.Len(t, got, 1)
	assert.Equal(t, urgent.ID, got[0].ID)

	got = FilterVisible(items, domain.OwnerEnvelope(), FilterOptions{Status: "completed"})
	require.Len(t, got, 1)
	assert.Equal(t, done.ID, got[0].ID)

	got = FilterVisible(items, domain.OwnerEnvelope(), FilterOptions{Status: "all", Priority: "all"})
	assert.Len(t, got, 3, `"all" disables the filter`)
}

func TestFilterVisible_DueBuckets(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	overdue := testutil.NewTestDelivery("lab",
		testutil.WithDueDate(now.AddDate(0, 0, -2)),
		testutil.WithProgress(33, domain.StatusInProgress))
	overdueDone := testutil.NewTestDelivery("lab",
		testutil.WithDueDate(now.AddDate(0, 0, -2)),
		testutil.WithProgress(100, domain.StatusCompleted))
	today := testutil.NewTestDelivery("lab", testutil.WithDueDate(now.Add(2*time.Hour)))
	nextWeek := testutil.NewTestDelivery("lab", testutil.WithDueDate(now.AddDate(0, 0, 5)))
	farOut := testutil.NewTestDelivery("lab", testutil.WithDueDate(now.AddDate(0, 1, 0)))
	noDue := testutil.NewTestDelivery("lab")
	items := []*domain.Delivery{overdue, overdueDone, today, nextWeek, farOut, noDue}

	got := FilterVisible(items, domain.OwnerEnvelope(), FilterOptions{DueBucket: domain.DueOverdue, Now: now})
	require.Len(t, got, 1, "completed items are never overdue")
	assert.Equal(t, overdue.ID, got[0].ID)

	got = FilterVisible(items, domain.OwnerEnvelope(), FilterOptions{DueBucket: domain.DueToday, Now: now})
	require.Len(t, got, 1)
	assert.Equal(t, today.ID, got[0].ID)

	got = FilterVisible(items, domain.OwnerEnvelope(), FilterOptions{DueBucket: domain.DueWeek, Now: now})
	assert.ElementsMatch(t,
		[]string{today.DeliveryNumber, nextWeek.DeliveryNumber},
		deliveryNumbers(got))
}

func TestFilterVisible_PipelineComposes(t *testing.T) {
	match := testutil.NewTestDelivery("lab",
		testutil.WithStage("stage-production"),
		testutil.WithAssignment("emp-1"),
		testutil.WithPatient("Claire Dubois"),
		testutil.WithPriority(domain.PriorityHigh),
		testutil.WithProgress(33, domain.StatusInProgress))
	wrongStage := testutil.NewTestDelivery("lab",
		testutil.WithStage("stage-finishing"),
		testutil.WithAssignment("emp-1"),
		testutil.WithPatient("Claire Dubois"),
		testutil.WithPriority(domain.PriorityHigh),
		testutil.WithProgress(50, domain.StatusInProgress))
	notMine := testutil.NewTestDelivery("lab",
		testutil.WithStage("stage-production"),
		testutil.WithPatient("Claire Dubois"),
		testutil.WithPriority(domain.PriorityHigh),
		testutil.WithProgress(33, domain.StatusInProgress))

	env := domain.PermissionEnvelope{
		IsEmployee:          true,
		EmployeeID:          "emp-1",
		CanViewAssignedOnly: true,
		AllowedStages:       map[string]bool{"stage-production": true},
	}
	opts := FilterOptions{SearchText: "dubois", Status: "in_progress", Priority: "high"}

	got := FilterVisible([]*domain.Delivery{match, wrongStage, notMine}, env, opts)
	require.Len(t, got, 1)
	assert.Equal(t, match.ID, got[0].ID)
}

func TestFilterVisible_PreservesOrder(t *testing.T) {
	a := testutil.NewTestDelivery("lab")
	b := testutil.NewTestDelivery("lab")
	c := testutil.NewTestDelivery("lab")

	got := FilterVisible([]*domain.Delivery{a, b, c}, domain.OwnerEnvelope(), FilterOptions{})
	require.Len(t, got, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
}
