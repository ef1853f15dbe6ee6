package cli

import (
	"log/slog"

	"microsite-app/config"
	"microsite-app/database"
	"microsite-app/internal/app"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Execute runs the command line.
func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "microsite",
		Short:        "Microsite builder backend",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newCouponCmd(), newUserCmd())
	return root
}

// setup loads config, installs the default logger and opens the database.
func setup() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	slog.SetDefault(app.NewLogger(cfg.LogLevel))
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := app.NewLogger(cfg.LogLevel)
			slog.SetDefault(logger)

			fxApp := app.New(cfg, logger)
			if err := fxApp.Err(); err != nil {
				return err
			}
			fxApp.Run()
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := setup()
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}
