package task

import (
	"fmt"

	"github.com/felixgeelhaar/taskboard/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show [task-id]",
		Short:   "Show task details",
		Aliases: []string{"get"},
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

			result, err := client.GetTask(cmd.Context(), taskID)
			if err != nil {
				return fmt.Errorf("failed to get task: %w", err)
			}

			cli.PrintTask(cmd.OutOrStdout(), *result)
			return nil
		},
	}
}

func parseTaskID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid task ID: %w", err)
	}
	return id, nil
}
