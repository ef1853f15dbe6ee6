package cli

import (
	"fmt"

	"microsite-app/internal/domain/users"
	"microsite-app/internal/services/accounts"

	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "promote EMAIL",
		Short: "Give a user the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup()
			if err != nil {
				return err
			}
			if err := accounts.NewService(db, cfg.JWTSecret).Promote(cmd.Context(), args[0], users.RoleAdmin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "👑 %s is now an admin\n", args[0])
			return nil
		},
	})
	return cmd
}
