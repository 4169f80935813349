package cli

import (
	"context"
	"testing"

	"github.com/adelorme/labflow/internal/db"
	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/repository"
	"github.com/adelorme/labflow/internal/service"
	"github.com/adelorme/labflow/internal/stage"
	"github.com/adelorme/labflow/internal/testutil"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires a full App over an in-memory database, acting as the
// laboratory owner.
func testApp(t *testing.T) (*App, *domain.Laboratory) {
	t.Helper()
	database := testutil.NewTestDB(t)

	labRepo := repository.NewSQLiteLaboratoryRepo(database)
	empRepo := repository.NewSQLiteEmployeeRepo(database)
	roleRepo := repository.NewSQLiteRolePermissionRepo(database)
	delRepo := repository.NewSQLiteDeliveryRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)
	catalog := stage.Default()

	lab := testutil.NewTestLaboratory("owner-acct")
	require.NoError(t, labRepo.Create(context.Background(), lab))

	app := &App{
		Laboratories: service.NewLaboratoryService(labRepo),
		Employees:    service.NewEmployeeService(empRepo),
		Deliveries:   service.NewDeliveryService(delRepo),
		Permissions:  service.NewPermissionService(labRepo, empRepo, roleRepo, catalog),
		Workflow:     service.NewWorkflowService(delRepo, catalog, uow),
		Catalog:      catalog,
		AccountID:    "owner-acct",
	}
	return app, lab
}

func seedWork(t *testing.T, app *App, lab *domain.Laboratory, opts ...testutil.DeliveryOption) *domain.Delivery {
	t.Helper()
	d := testutil.NewTestDelivery(lab.ID, opts...)
	require.NoError(t, app.Deliveries.Create(context.Background(), d))
	return d
}

// press feeds one message through Update, discarding any returned command.
// Used for keys whose commands are ticks (cursor blink).
func press(t *testing.T, m boardModel, msg tea.Msg) boardModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(boardModel)
}

// drive feeds a message through Update and keeps executing returned commands
// until the model settles.
func drive(t *testing.T, m boardModel, msg tea.Msg) boardModel {
	t.Helper()
	for msg != nil {
		var cmd tea.Cmd
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(boardModel)
		if cmd == nil {
			return m
		}
		msg = cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return m
		}
	}
	return m
}

func startBoard(t *testing.T, app *App, lab *domain.Laboratory) boardModel {
	t.Helper()
	m := newBoardModel(app, lab)
	return drive(t, m, m.Init()())
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBoard_LanesFollowCatalog(t *testing.T) {
	app, lab := testApp(t)
	seedWork(t, app, lab)
	seedWork(t, app, lab, testutil.WithStage("stage-production"))

	m := startBoard(t, app, lab)

	require.Len(t, m.board.Lanes, app.Catalog.Len()+1)
	assert.Equal(t, "Unassigned", m.board.Lanes[0].Title())
	assert.Len(t, m.board.Lanes[0].Items, 1)
	assert.Len(t, m.board.Lanes[3].Items, 1)
}

func TestBoard_GrabAndDropMovesWork(t *testing.T) {
	app, lab := testApp(t)
	d := seedWork(t, app, lab)

	m := startBoard(t, app, lab)

	// Grab the unassigned card, move right to the first stage lane, drop.
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, d.ID, m.drag.Dragging())

	m = drive(t, m, keyMsg("l"))
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, m.drag.Dragging())
	got, err := app.Deliveries.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentStageID)
	assert.Equal(t, "stage-reception", *got.CurrentStageID)
	assert.Equal(t, 0, got.ProgressPercentage)
}

func TestBoard_DropOnSourceLaneIsNoOp(t *testing.T) {
	app, lab := testApp(t)
	d := seedWork(t, app, lab, testutil.WithStage("stage-production"))

	m := startBoard(t, app, lab)
	m.lane = 3 // stage-production lane
	m.clampCursor()

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, d.ID, m.drag.Dragging())
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, m.drag.Dragging())
	got, err := app.Deliveries.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "stage-production", *got.CurrentStageID, "no transition issued")
}

func TestBoard_EscCancelsDrag(t *testing.T) {
	app, lab := testApp(t)
	seedWork(t, app, lab)

	m := startBoard(t, app, lab)
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotEmpty(t, m.drag.Dragging())

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.drag.Dragging())
}

func TestBoard_DropOnUnassignedLaneRefused(t *testing.T) {
	app, lab := testApp(t)
	d := seedWork(t, app, lab, testutil.WithStage("stage-modeling"))

	m := startBoard(t, app, lab)
	m.lane = 2
	m.clampCursor()
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m.lane = 0
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, m.drag.Dragging())
	assert.Contains(t, m.status, "unassigned")
	got, err := app.Deliveries.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "stage-modeling", *got.CurrentStageID)
}

func TestBoard_AdvanceKey(t *testing.T) {
	app, lab := testApp(t)
	d := seedWork(t, app, lab, testutil.WithStage("stage-reception"))

	m := startBoard(t, app, lab)
	m.lane = 1
	m.clampCursor()

	drive(t, m, keyMsg("a"))

	got, err := app.Deliveries.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "stage-modeling", *got.CurrentStageID)
	assert.Equal(t, 17, got.ProgressPercentage)
}

func TestBoard_DeliverKey(t *testing.T) {
	app, lab := testApp(t)
	d := seedWork(t, app, lab, testutil.WithStage("stage-finishing"))

	m := startBoard(t, app, lab)
	m.lane = 4
	m.clampCursor()

	drive(t, m, keyMsg("d"))

	got, err := app.Deliveries.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.ProgressPercentage)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestBoard_RestrictedEmployeeSeesAuthError(t *testing.T) {
	app, lab := testApp(t)

	emp := testutil.NewTestEmployee(lab.ID, "tech-acct", testutil.WithRole("finisher"))
	require.NoError(t, app.Employees.Create(context.Background(), emp))
	raw := testutil.RolePermissionJSON(true, false, false, "Finishing")
	require.NoError(t, app.Permissions.SetRolePermissions(context.Background(), lab.ID, "finisher", raw))

	d := seedWork(t, app, lab, testutil.WithStage("stage-finishing"))
	app.AccountID = "tech-acct"

	m := startBoard(t, app, lab)
	// Lanes: unassigned + Finishing only.
	require.Len(t, m.board.Lanes, 2)
	m.lane = 1
	m.clampCursor()

	m = drive(t, m, keyMsg("a")) // advance into quality control, not allowed

	assert.NotEmpty(t, m.status)
	got, err := app.Deliveries.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "stage-finishing", *got.CurrentStageID, "item unchanged")
}

func TestBoard_MineToggleReloads(t *testing.T) {
	app, lab := testApp(t)

	emp := testutil.NewTestEmployee(lab.ID, "tech-acct")
	require.NoError(t, app.Employees.Create(context.Background(), emp))

	mine := seedWork(t, app, lab, testutil.WithStage("stage-reception"))
	require.NoError(t, app.Deliveries.Assign(context.Background(), mine.ID, emp.ID))
	seedWork(t, app, lab, testutil.WithStage("stage-reception"))

	app.AccountID = "tech-acct"
	m := startBoard(t, app, lab)
	require.Len(t, m.board.Lanes[1].Items, 2, "technician defaults see every work")

	m = drive(t, m, keyMsg("m"))
	require.Len(t, m.board.Lanes[1].Items, 1)
	assert.Equal(t, mine.ID, m.board.Lanes[1].Items[0].ID)
}

func TestBoard_QuitKey(t *testing.T) {
	app, lab := testApp(t)
	m := startBoard(t, app, lab)

	next, cmd := m.Update(keyMsg("q"))
	m = next.(boardModel)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestBoard_SearchFiltersItems(t *testing.T) {
	app, lab := testApp(t)
	target := seedWork(t, app, lab, testutil.WithStage("stage-reception"), testutil.WithPatient("Durand"))
	seedWork(t, app, lab, testutil.WithStage("stage-reception"), testutil.WithPatient("Martin"))

	m := startBoard(t, app, lab)
	require.Len(t, m.board.Lanes[1].Items, 2)

	m = press(t, m, keyMsg("/"))
	require.True(t, m.search.Focused())
	for _, r := range "durand" {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, m.board.Lanes[1].Items, 1)
	assert.Equal(t, target.ID, m.board.Lanes[1].Items[0].ID)
}
