package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adelorme/labflow/internal/cli/formatter"
	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/repository"
	"github.com/adelorme/labflow/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// priorityFlag is a pflag.Value that validates priorities at parse time.
type priorityFlag struct {
	p *domain.Priority
}

var _ pflag.Value = (*priorityFlag)(nil)

func (f *priorityFlag) String() string {
	if f.p == nil {
		return ""
	}
	return string(*f.p)
}

func (f *priorityFlag) Set(s string) error {
	if !domain.ValidPriorities[s] {
		return fmt.Errorf("invalid priority %q (low|normal|high|urgent)", s)
	}
	*f.p = domain.Priority(s)
	return nil
}

func (f *priorityFlag) Type() string {
	return "priority"
}

func newWorkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Manage work items",
	}

	cmd.AddCommand(
		newWorkAddCmd(app),
		newWorkListCmd(app),
		newWorkShowCmd(app),
		newWorkMoveCmd(app),
		newWorkAdvanceCmd(app),
		newWorkDeliverCmd(app),
		newWorkAssignCmd(app),
		newWorkUnassignCmd(app),
		newWorkBlockCmd(app),
		newWorkRemoveCmd(app),
	)

	return cmd
}

func newWorkAddCmd(app *App) *cobra.Command {
	var number, patient, dentist, due string
	priority := domain.PriorityNormal

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new work item",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			lab, err := app.laboratory(ctx)
			if err != nil {
				return err
			}

			d := &domain.Delivery{
				LaboratoryID:   lab.ID,
				DeliveryNumber: number,
				PatientName:    patient,
				DentistName:    dentist,
				Priority:       priority,
			}
			if due != "" {
				t, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("invalid due date %q, expected YYYY-MM-DD", due)
				}
				d.DueDate = &t
			}

			if err := app.Deliveries.Create(ctx, d); err != nil {
				return err
			}

			fmt.Printf("Created work %s for %s (%s)\n", d.DeliveryNumber, d.PatientName, d.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&number, "number", "", "Delivery number")
	cmd.Flags().StringVar(&patient, "patient", "", "Patient name")
	cmd.Flags().StringVar(&dentist, "dentist", "", "Prescribing dentist")
	cmd.Flags().Var(&priorityFlag{p: &priority}, "priority", "Priority (low|normal|high|urgent)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("patient")

	return cmd
}

func newWorkListCmd(app *App) *cobra.Command {
	var mine bool
	var search, status, priority, due string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			lab, err := app.laboratory(ctx)
			if err != nil {
				return err
			}
			env := app.envelope(ctx)

			opts := service.FilterOptions{
				MyWorksOnly: mine,
				SearchText:  search,
				Status:      status,
				Priority:    priority,
			}
			switch due {
			case "":
			case "overdue":
				opts.DueBucket = domain.DueOverdue
			case "today":
				opts.DueBucket = domain.DueToday
			case "week":
				opts.DueBucket = domain.DueWeek
			default:
				return fmt.Errorf("invalid due bucket %q (overdue|today|week)", due)
			}

			items, err := app.Deliveries.ListVisible(ctx, lab.ID, env, opts)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println(formatter.Dim("No work items."))
				return nil
			}

			headers := []string{"NUMBER", "PATIENT", "STAGE", "PROGRESS", "STATUS", "PRIORITY", "DUE"}
			rows := make([][]string, 0, len(items))
			for _, d := range items {
				rows = append(rows, []string{
					d.DeliveryNumber + formatter.BlockedMarker(d.IsBlocked),
					d.PatientName,
					formatter.StageLabel(app.stageOf(d)),
					formatter.RenderProgress(d.ProgressPercentage, 10),
					formatter.StatusPill(d.Status),
					formatter.PriorityBadge(d.Priority),
					formatter.DueStyled(d.DueDate),
				})
			}
			fmt.Print(formatter.RenderTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "Only work assigned to me")
	cmd.Flags().StringVar(&search, "search", "", "Substring match on number, patient or dentist")
	cmd.Flags().StringVar(&status, "status", "", "Status filter (pending|in_progress|completed|all)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority filter (low|normal|high|urgent|all)")
	cmd.Flags().StringVar(&due, "due", "", "Due bucket (overdue|today|week)")

	return cmd
}

func newWorkShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show NUMBER",
		Short: "Show work item details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := app.resolveWork(ctx, args[0])
			if err != nil {
				return friendlyErr(err)
			}

			var b strings.Builder
			b.WriteString(fmt.Sprintf("%s  %s\n\n", formatter.Bold(d.DeliveryNumber), formatter.StatusPill(d.Status)))
			b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("PATIENT "), d.PatientName))
			if d.DentistName != "" {
				b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("DENTIST "), d.DentistName))
			}
			b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("STAGE   "), formatter.StageLabel(app.stageOf(d))))
			b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("PROGRESS"), formatter.RenderProgress(d.ProgressPercentage, 20)))
			b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("PRIORITY"), formatter.PriorityBadge(d.Priority)))
			if d.DueDate != nil {
				b.WriteString(fmt.Sprintf("  %s  %s %s\n", formatter.Dim("DUE     "),
					formatter.DueStyled(d.DueDate),
					formatter.Dim("("+d.DueDate.Format("Jan 2, 2006")+")")))
			}
			if d.IsBlocked {
				b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("BLOCKED "), formatter.StyleRed.Render("yes")))
			}
			if len(d.Assignments) > 0 {
				names := make([]string, 0, len(d.Assignments))
				for _, a := range d.Assignments {
					if e, err := app.Employees.GetByID(ctx, a.EmployeeID); err == nil {
						names = append(names, e.Name)
					} else {
						names = append(names, formatter.TruncID(a.EmployeeID))
					}
				}
				b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("STAFF   "), strings.Join(names, ", ")))
			}
			b.WriteString(fmt.Sprintf("  %s  %s\n", formatter.Dim("ID      "), formatter.TruncID(d.ID)))

			fmt.Print(formatter.RenderBox("Work Item", b.String()))
			return nil
		},
	}
	return cmd
}

func newWorkMoveCmd(app *App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "move NUMBER",
		Short: "Move a work item to a specific stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := app.resolveWork(ctx, args[0])
			if err != nil {
				return friendlyErr(err)
			}
			target, err := app.resolveStage(to)
			if err != nil {
				return err
			}

			env := app.envelope(ctx)
			updated, err := app.Workflow.RequestTransition(ctx, env, d.ID, target.ID)
			if err != nil {
				return friendlyErr(err)
			}

			fmt.Printf("Moved %s to %s (%d%%)\n", updated.DeliveryNumber, target.Name, updated.ProgressPercentage)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target stage (name or id)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newWorkAdvanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "advance NUMBER",
		Short: "Advance a work item to its next stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := app.resolveWork(ctx, args[0])
			if err != nil {
				return friendlyErr(err)
			}

			env := app.envelope(ctx)
			updated, err := app.Workflow.AdvanceToNext(ctx, env, d.ID)
			if err != nil {
				return friendlyErr(err)
			}

			fmt.Printf("Advanced %s to %s (%d%%)\n", updated.DeliveryNumber,
				formatter.StageLabel(app.stageOf(updated)), updated.ProgressPercentage)
			return nil
		},
	}
}

func newWorkDeliverCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deliver NUMBER",
		Short: "Mark a work item as delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := app.resolveWork(ctx, args[0])
			if err != nil {
				return friendlyErr(err)
			}

			env := app.envelope(ctx)
			updated, err := app.Workflow.MarkDelivered(ctx, env, d.ID)
			if err != nil {
				return friendlyErr(err)
			}

			fmt.Printf("Delivered %s (100%%)\n", updated.DeliveryNumber)
			return nil
		},
	}
}

func newWorkAssignCmd(app *App) *cobra.Command {
	var employee string

	cmd := &cobra.Command{
		Use:   "assign NUMBER",
		Short: "Assign an employee to a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := app.resolveWork(ctx, args[0])
			if err != nil {
				return friendlyErr(err)
			}
			emp, err := app.resolveEmployee(ctx, employee)
			if err != nil {
				return err
			}

			if err := app.Deliveries.Assign(ctx, d.ID, emp.ID); err != nil {
				return err
			}
			fmt.Printf("Assigned %s to %s\n", emp.Name, d.DeliveryNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&employee, "employee", "", "Employee (name or id)")
	_ = cmd.MarkFlagRequired("employee")

	return cmd
}

func newWorkUnassignCmd(app *App) *cobra.Command {
	var employee string

	cmd := &cobra.Command{
		Use:   "unassign NUMBER",
		Short: "Remove an employee from a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := app.resolveWork(ctx, args[0])
			if err != nil {
				return friendlyErr(err)
			}
			emp, err := app.resolveEmployee(ctx, employee)
			if err != nil {
				return err
			}

			if err := app.Deliveries.Unassign(ctx, d.ID, emp.ID); err != nil {
				return err
			}
			fmt.Printf("Unassigned %s from %s\n", emp.Name, d.DeliveryNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&employee, "employee", "", "Employee (name or id)")
	_ = cmd.MarkFlagRequired("employee")

	return cmd
}

func newWorkBlockCmd(app *App) *cobra.Command {
	var unblock bool

	cmd := &cobra.Command{
		Use:   "block NUMBER",
		Short: "Mark a work item as blocked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := app.resolveWork(ctx, args[0])
			if err != nil {
				return friendlyErr(err)
			}

			d.IsBlocked = !unblock
			if err := app.Deliveries.Update(ctx, d); err != nil {
				return err
			}
			if unblock {
				fmt.Printf("Unblocked %s\n", d.DeliveryNumber)
			} else {
				fmt.Printf("Blocked %s\n", d.DeliveryNumber)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unblock, "clear", false, "Clear the blocked flag instead")

	return cmd
}

func newWorkRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NUMBER",
		Short: "Remove a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := app.resolveWork(ctx, args[0])
			if err != nil {
				return friendlyErr(err)
			}
			if err := app.Deliveries.Delete(ctx, d.ID); err != nil {
				return friendlyErr(err)
			}
			fmt.Printf("Removed work %s\n", d.DeliveryNumber)
			return nil
		},
	}
}

// resolveWork finds a delivery by its delivery number within the laboratory,
// falling back to an exact ID match.
func (app *App) resolveWork(ctx context.Context, ref string) (*domain.Delivery, error) {
	lab, err := app.laboratory(ctx)
	if err != nil {
		return nil, err
	}
	d, err := app.Deliveries.GetByNumber(ctx, lab.ID, ref)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return app.Deliveries.GetByID(ctx, ref)
}

// resolveStage matches a catalog stage by name (case-insensitive) or id.
func (app *App) resolveStage(ref string) (domain.ProductionStage, error) {
	if s, ok := app.Catalog.ByName(ref); ok {
		return s, nil
	}
	if s, ok := app.Catalog.ByID(ref); ok {
		return s, nil
	}
	return domain.ProductionStage{}, fmt.Errorf("unknown stage %q; run 'labflow stage list'", ref)
}

// resolveEmployee matches an employee by exact name (case-insensitive) or id.
func (app *App) resolveEmployee(ctx context.Context, ref string) (*domain.Employee, error) {
	lab, err := app.laboratory(ctx)
	if err != nil {
		return nil, err
	}
	staff, err := app.Employees.ListByLaboratory(ctx, lab.ID)
	if err != nil {
		return nil, err
	}
	for _, e := range staff {
		if e.ID == ref || strings.EqualFold(e.Name, ref) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("unknown employee %q", ref)
}

// stageOf returns the catalog stage a delivery sits in, or nil when
// unassigned.
func (app *App) stageOf(d *domain.Delivery) *domain.ProductionStage {
	if d.CurrentStageID == nil {
		return nil
	}
	if s, ok := app.Catalog.ByID(*d.CurrentStageID); ok {
		return &s
	}
	return nil
}
