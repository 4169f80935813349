package cli

import (
	"fmt"

	"github.com/adelorme/labflow/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newStageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Inspect the production pipeline",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pipeline stages in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			headers := []string{"#", "STAGE", "ID", "PROGRESS", "FLAGS"}
			rows := make([][]string, 0, app.Catalog.Len())
			for _, s := range app.Catalog.Stages() {
				stage := s
				flags := ""
				if s.RequiresApproval {
					flags = formatter.StyleYellow.Render("approval")
				}
				if s.DeliveryReady {
					if flags != "" {
						flags += " "
					}
					flags += formatter.StyleGreen.Render("delivery-ready")
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", s.OrderIndex),
					formatter.StageLabel(&stage),
					formatter.Dim(s.ID),
					formatter.RenderProgress(app.Catalog.Progress(s.ID), 10),
					flags,
				})
			}
			fmt.Print(formatter.RenderTable(headers, rows))
			return nil
		},
	})

	return cmd
}
