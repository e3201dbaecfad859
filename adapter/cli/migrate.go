package cli

import (
	"fmt"

	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply pending schema migrations to the configured database.

SQLite databases are migrated automatically when opened; PostgreSQL
deployments run this once per release.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp(cmd)
		if err != nil {
			return err
		}
		if app.DB == nil {
			return ErrAppNotInitialized
		}

		applied, err := migrations.Migrate(cmd.Context(), app.DB, app.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date.")
			return nil
		}
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
