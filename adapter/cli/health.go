package cli

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/eventline/pkg/observability"
	"github.com/spf13/cobra"
)

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database and broker connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp(cmd)
		if err != nil {
			return err
		}
		if app.Health == nil {
			return ErrAppNotInitialized
		}

		health := app.Health.Check(cmd.Context())
		if healthJSON {
			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(health); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), health.Status)
			for _, name := range app.Health.Names() {
				check := health.Checks[name]
				fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %s %s\n", name, check.Status, check.Message)
			}
		}

		if health.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(healthCmd)
}
