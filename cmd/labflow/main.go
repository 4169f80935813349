package main

import (
	"fmt"
	"os"

	"github.com/adelorme/labflow/internal/cli"
	"github.com/adelorme/labflow/internal/config"
	"github.com/adelorme/labflow/internal/db"
	"github.com/adelorme/labflow/internal/repository"
	"github.com/adelorme/labflow/internal/service"
	"github.com/adelorme/labflow/internal/stage"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("LABFLOW_CONFIG"))
	if err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	labRepo := repository.NewSQLiteLaboratoryRepo(database)
	empRepo := repository.NewSQLiteEmployeeRepo(database)
	roleRepo := repository.NewSQLiteRolePermissionRepo(database)
	delRepo := repository.NewSQLiteDeliveryRepo(database)

	// Wire unit of work for transactional stage transitions
	uow := db.NewSQLiteUnitOfWork(database)

	catalog := stage.Default()

	var observers []service.OperationObserver
	if cfg.LogUseCases {
		observers = append(observers, service.NewSlogObserver(os.Stderr))
	}

	app := &cli.App{
		Laboratories: service.NewLaboratoryService(labRepo),
		Employees:    service.NewEmployeeService(empRepo),
		Deliveries:   service.NewDeliveryService(delRepo),
		Permissions:  service.NewPermissionService(labRepo, empRepo, roleRepo, catalog, observers...),
		Workflow:     service.NewWorkflowService(delRepo, catalog, uow, observers...),
		Catalog:      catalog,
		AccountID:    cfg.AccountID,
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
