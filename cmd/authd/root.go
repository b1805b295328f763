package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Running it without a subcommand serves.
func NewRootCmd() *cobra.Command {
	serveCmd := NewServeCmd()

	cmd := &cobra.Command{
		Use:   "authd",
		Short: "Authentication microservice",
		Long: `authd registers users, logs them in and verifies session tokens
over HTTP and gRPC, backed by MongoDB or PostgreSQL.`,
		RunE:          serveCmd.RunE,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(serveCmd)
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
