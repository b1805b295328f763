package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/redmonkez12/go-auth-service/internal/config"
	"github.com/redmonkez12/go-auth-service/internal/database"
)

// NewMigrateCmd creates the migrate subcommand
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run PostgreSQL migrations",
		Long:  `Apply all pending migrations to the PostgreSQL user store (DB_* settings).`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	cmd.Println("Running migrations...")
	if err := database.RunMigrations(cfg.Database.URL()); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
