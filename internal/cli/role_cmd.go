package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/adelorme/labflow/internal/cli/formatter"
	"github.com/adelorme/labflow/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newRoleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage role permissions",
	}

	cmd.AddCommand(
		newRoleShowCmd(app),
		newRoleSetCmd(app),
	)

	return cmd
}

func newRoleShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ROLE",
		Short: "Show a role's effective permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			lab, err := app.laboratory(ctx)
			if err != nil {
				return err
			}

			doc, err := app.Permissions.GetRolePermissions(ctx, lab.ID, args[0])
			if err != nil {
				return err
			}
			viewAll, assignedOnly, editAll, stages := doc.WorkManagement()

			var b strings.Builder
			b.WriteString(fmt.Sprintf("%s\n\n", formatter.Bold(args[0])))
			b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("VIEW ALL WORKS   "), yesNo(viewAll)))
			b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("VIEW ASSIGNED    "), yesNo(assignedOnly)))
			b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("EDIT ALL STAGES  "), yesNo(editAll)))
			if !editAll {
				names := make([]string, 0, len(stages))
				for _, ref := range stages {
					if s, ok := app.Catalog.ByName(ref.Name); ok {
						names = append(names, formatter.StageLabel(&s))
					} else {
						names = append(names, formatter.Dim(ref.Name+" (unknown)"))
					}
				}
				if len(names) == 0 {
					names = append(names, formatter.Dim("none"))
				}
				b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("ALLOWED STAGES   "), strings.Join(names, ", ")))
			}

			fmt.Print(formatter.RenderBox("Role Permissions", b.String()))
			return nil
		},
	}
}

func newRoleSetCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "set ROLE",
		Short: "Set a role's permissions",
		Long: "Set a role's permissions from a JSON document (--file) or, on a " +
			"terminal, through an interactive form.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			lab, err := app.laboratory(ctx)
			if err != nil {
				return err
			}

			var raw []byte
			if file != "" {
				raw, err = os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading %s: %w", file, err)
				}
			} else {
				if app.IsInteractive != nil && !app.IsInteractive() {
					return fmt.Errorf("no terminal; pass --file with a permission document")
				}
				raw, err = app.rolePermissionForm(ctx, lab.ID, args[0])
				if err != nil {
					return err
				}
			}

			if err := app.Permissions.SetRolePermissions(ctx, lab.ID, args[0], raw); err != nil {
				return err
			}
			fmt.Printf("Updated permissions for role %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON permission document")

	return cmd
}

// rolePermissionForm collects a permission document interactively,
// pre-filled from the role's current settings.
func (app *App) rolePermissionForm(ctx context.Context, labID, role string) ([]byte, error) {
	current, err := app.Permissions.GetRolePermissions(ctx, labID, role)
	if err != nil {
		return nil, err
	}
	viewAll, assignedOnly, editAll, stages := current.WorkManagement()

	selected := make([]string, 0, len(stages))
	for _, ref := range stages {
		selected = append(selected, ref.Name)
	}

	stageOptions := make([]huh.Option[string], 0, app.Catalog.Len())
	for _, s := range app.Catalog.Stages() {
		stageOptions = append(stageOptions, huh.NewOption(s.Name, s.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("View all works?").
				Value(&viewAll),
			huh.NewConfirm().
				Title("Restrict to assigned works?").
				Value(&assignedOnly),
			huh.NewConfirm().
				Title("Edit all stages?").
				Value(&editAll),
			huh.NewMultiSelect[string]().
				Title("Allowed stages (when not editing all)").
				Options(stageOptions...).
				Value(&selected),
		),
	).WithShowHelp(false)

	if err := form.Run(); err != nil {
		return nil, err
	}

	doc := domain.RolePermissionDocument{}
	doc.Permissions.WorkManagement = domain.WorkManagementPermissions{
		ViewAllWorks:     &viewAll,
		ViewAssignedOnly: &assignedOnly,
		CanEditAllStages: &editAll,
	}
	for _, name := range selected {
		ref := domain.StageRef{Name: name}
		if s, ok := app.Catalog.ByName(name); ok {
			ref.ID = s.ID
		}
		doc.Permissions.WorkManagement.AllowedStages =
			append(doc.Permissions.WorkManagement.AllowedStages, ref)
	}
	return json.Marshal(doc)
}

func yesNo(v bool) string {
	if v {
		return formatter.StyleGreen.Render("yes")
	}
	return formatter.Dim("no")
}
