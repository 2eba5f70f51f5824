package task

import (
	"fmt"

	"github.com/felixgeelhaar/taskboard/adapter/cli"
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [task-id]",
		Short:   "Delete a task",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			client, err := cli.GetClient()
			if err != nil {
				return err
			}

			if _, err := client.DeleteTask(cmd.Context(), taskID); err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Task deleted: %s\n", taskID)
			return nil
		},
	}
}
