package task

import (
	"github.com/spf13/cobra"
)

// Cmd is the task command group
var Cmd = NewCommand()

// NewCommand builds the task command group with fresh flag state.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  `Create, list, update and delete tasks on a taskboard server.`,
	}
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newDeleteCmd())
	return cmd
}
