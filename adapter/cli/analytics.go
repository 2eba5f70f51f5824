package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var analyticsJSON bool

var analyticsCmd = &cobra.Command{
	Use:     "analytics",
	Short:   "Show registry analytics",
	Aliases: []string{"stats"},
	Long: `Display a summary of the registry: total tasks, counts per status,
high priority tasks and the average AI score.

Examples:
  taskboard analytics
  taskboard analytics --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := GetClient()
		if err != nil {
			return err
		}

		summary, err := client.Analytics(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch analytics: %w", err)
		}

		out := cmd.OutOrStdout()
		if analyticsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}
		PrintAnalytics(out, *summary)
		return nil
	},
}

func init() {
	analyticsCmd.Flags().BoolVar(&analyticsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(analyticsCmd)
}
