package task

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/taskboard/adapter/api"
	"github.com/felixgeelhaar/taskboard/adapter/cli"
	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	var (
		title       string
		description string
		priority    string
		status      string
		dueDate     string
		clearDue    bool
	)

	cmd := &cobra.Command{
		Use:   "update [task-id]",
		Short: "Update a task",
		Long: `Update one or more fields of a task. Only the flags you pass are
changed; the task is rescored and observers receive a task-updated event.

Examples:
  taskboard task update 3f2a... --priority high
  taskboard task update 3f2a... --status completed
  taskboard task update 3f2a... --clear-due`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			req := api.UpdateTaskRequest{ClearDueDate: clearDue}
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("priority") {
				req.Priority = &priority
			}
			if flags.Changed("status") {
				req.Status = &status
			}
			if flags.Changed("due") {
				if clearDue {
					return errors.New("--due and --clear-due are mutually exclusive")
				}
				raw, err := json.Marshal(dueDate)
				if err != nil {
					return err
				}
				req.DueDate = raw
			}

			client, err := cli.GetClient()
			if err != nil {
				return err
			}

			result, err := client.UpdateTask(cmd.Context(), taskID, req)
			if err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Task updated.")
			cli.PrintTask(cmd.OutOrStdout(), *result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority (low, medium, high)")
	cmd.Flags().StringVar(&status, "status", "", "new status (pending, in-progress, completed)")
	cmd.Flags().StringVar(&dueDate, "due", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	return cmd
}
