package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hphungg/chatbot-sub000/internal/config"
	"github.com/hphungg/chatbot-sub000/internal/store"
)

// buildMigrateCmd creates the "migrate" command that applies the
// database schema.
func buildMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		Long: `Apply the portal's database schema.

Every statement is idempotent, so the command is safe to run on every
deploy. Only the tables owned by this service are touched.`,
		Example: `  portal migrate --config /etc/portal/production.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := store.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if err := store.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			slog.Info("migrations completed", "database", cfg.Database.Database)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "portal.yaml",
		"Path to YAML configuration file")

	return cmd
}

// buildVersionCmd creates the "version" command.
func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "portal %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
