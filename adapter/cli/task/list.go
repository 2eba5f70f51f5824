package task

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/taskboard/adapter/cli"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var (
		status   string
		priority string
		limit    int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks by AI score",
		Long: `List tasks, highest AI score first. Ties keep creation order.

Filter Options:
  --status      Filter by status (pending, in-progress, completed)
  --priority    Filter by priority (low, medium, high)
  --limit       Show at most N tasks

Examples:
  taskboard task list
  taskboard task list --priority high
  taskboard task list --status pending --limit 5`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cli.GetClient()
			if err != nil {
				return err
			}

			tasks, err := client.ListTasks(cmd.Context(), queries.ListTasksQuery{
				Status:   status,
				Priority: priority,
				Limit:    limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			cli.PrintTaskTable(cmd.OutOrStdout(), tasks)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "filter by priority")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of tasks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
