package task

import (
	"fmt"

	"github.com/felixgeelhaar/taskboard/adapter/api"
	"github.com/felixgeelhaar/taskboard/adapter/cli"
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var (
		priority    string
		description string
		dueDate     string
	)

	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a new task",
		Long: `Create a new task with a title and optional properties. The server
scores the task and broadcasts it to every observer.

Examples:
  taskboard task create "Complete project report"
  taskboard task create "Review PR" -p high --due 2024-06-11
  taskboard task create "Write docs" --description "Cover the API and CLI"`,
		Aliases: []string{"add"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cli.GetClient()
			if err != nil {
				return err
			}

			result, err := client.CreateTask(cmd.Context(), api.CreateTaskRequest{
				Title:       args[0],
				Description: description,
				Priority:    priority,
				DueDate:     dueDate,
			})
			if err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task created: %s\n", result.ID)
			fmt.Fprintf(out, "  title: %s\n", result.Title)
			fmt.Fprintf(out, "  priority: %s\n", result.Priority)
			fmt.Fprintf(out, "  score: %d\n", result.AIScore)
			return nil
		},
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "", "task priority (low, medium, high)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD)")
	return cmd
}
