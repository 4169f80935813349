package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/repository"
	"github.com/adelorme/labflow/internal/service"
	"github.com/adelorme/labflow/internal/stage"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Laboratories service.LaboratoryService
	Employees    service.EmployeeService
	Deliveries   service.DeliveryService
	Permissions  service.PermissionService
	Workflow     service.WorkflowService
	Catalog      *stage.Catalog

	// AccountID is the acting principal; every command resolves a fresh
	// permission envelope for it.
	AccountID string

	// IsInteractive reports whether stdin is a terminal. The board command
	// refuses to start without one.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "labflow" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "labflow",
		Short:         "Dental lab production tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&app.AccountID, "account", app.AccountID,
		"Acting account ID (overrides config)")

	root.AddCommand(
		newInitCmd(app),
		newWorkCmd(app),
		newEmployeeCmd(app),
		newRoleCmd(app),
		newStageCmd(app),
		newBoardCmd(app),
	)

	return root
}

// envelope resolves the acting account's permission envelope. Resolution
// never fails; unknown accounts get the no-access envelope.
func (app *App) envelope(ctx context.Context) domain.PermissionEnvelope {
	return app.Permissions.Resolve(ctx, app.AccountID)
}

// laboratory returns the single tenant record, with a setup hint when the
// database has not been initialized yet.
func (app *App) laboratory(ctx context.Context) (*domain.Laboratory, error) {
	lab, err := app.Laboratories.GetDefault(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errors.New("no laboratory configured; run 'labflow init' first")
	}
	return lab, err
}

// friendlyErr rewrites workflow sentinel errors into user-facing messages.
func friendlyErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrNoNextStage):
		return errors.New("already at the last stage; use 'labflow work deliver' to complete it")
	case errors.Is(err, service.ErrStageNotAllowed):
		return errors.New("your role does not allow editing work in that stage")
	case errors.Is(err, service.ErrUnknownStage):
		return fmt.Errorf("%w; run 'labflow stage list' to see valid stages", err)
	case errors.Is(err, repository.ErrNotFound):
		return errors.New("no such work item")
	default:
		return err
	}
}
