package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/adelorme/labflow/internal/cli/formatter"
	"github.com/adelorme/labflow/internal/domain"
	"github.com/spf13/cobra"
)

func newEmployeeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Manage laboratory staff",
	}

	cmd.AddCommand(
		newEmployeeAddCmd(app),
		newEmployeeListCmd(app),
		newEmployeeDeactivateCmd(app),
	)

	return cmd
}

func newEmployeeAddCmd(app *App) *cobra.Command {
	var name, account, role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			lab, err := app.laboratory(ctx)
			if err != nil {
				return err
			}

			e := &domain.Employee{
				LaboratoryID: lab.ID,
				AccountID:    account,
				Name:         name,
				RoleName:     role,
				IsActive:     true,
			}
			if err := app.Employees.Create(ctx, e); err != nil {
				return err
			}

			fmt.Printf("Added %s as %s (%s)\n", e.Name, e.RoleName, e.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Employee name")
	cmd.Flags().StringVar(&account, "account", "", "Login account ID")
	cmd.Flags().StringVar(&role, "role", "", "Role name (defaults to technician)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func newEmployeeListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			lab, err := app.laboratory(ctx)
			if err != nil {
				return err
			}
			staff, err := app.Employees.ListByLaboratory(ctx, lab.ID)
			if err != nil {
				return err
			}
			if len(staff) == 0 {
				fmt.Println(formatter.Dim("No employees."))
				return nil
			}

			headers := []string{"ID", "NAME", "ROLE", "ACCOUNT", "ACTIVE"}
			rows := make([][]string, 0, len(staff))
			for _, e := range staff {
				active := formatter.StyleGreen.Render("yes")
				if !e.IsActive {
					active = formatter.Dim("no")
				}
				rows = append(rows, []string{
					formatter.TruncID(e.ID),
					e.Name,
					e.RoleName,
					e.AccountID,
					active,
				})
			}
			fmt.Print(formatter.RenderTable(headers, rows))
			return nil
		},
	}
}

func newEmployeeDeactivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate NAME",
		Short: "Deactivate an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := app.resolveEmployee(ctx, args[0])
			if err != nil {
				return err
			}

			e.IsActive = false
			e.UpdatedAt = time.Now()
			if err := app.Employees.Update(ctx, e); err != nil {
				return err
			}
			fmt.Printf("Deactivated %s\n", e.Name)
			return nil
		},
	}
}
