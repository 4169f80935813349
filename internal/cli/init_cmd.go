package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/repository"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	var name, owner string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the laboratory record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if _, err := app.Laboratories.GetDefault(ctx); err == nil {
				return errors.New("a laboratory already exists")
			} else if !errors.Is(err, repository.ErrNotFound) {
				return err
			}

			if owner == "" {
				owner = app.AccountID
			}
			if owner == "" {
				return errors.New("no owner account; pass --owner or set account_id in the config")
			}

			lab := &domain.Laboratory{
				ID:             uuid.New().String(),
				Name:           name,
				OwnerAccountID: owner,
				CreatedAt:      time.Now(),
				UpdatedAt:      time.Now(),
			}
			if err := app.Laboratories.Create(ctx, lab); err != nil {
				return err
			}

			fmt.Printf("Created laboratory %s (%s), owned by %s\n", lab.Name, lab.ID, owner)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Laboratory name")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner account ID (defaults to the acting account)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
