package cli

import (
	"github.com/felixgeelhaar/taskboard/adapter/api"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/services"
	"github.com/spf13/cobra"
)

var (
	scorePriority    string
	scoreDescription string
	scoreDue         string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Explain the AI score for a set of attributes",
	Long: `Compute the AI score a task with the given attributes would receive,
itemized by contribution. Nothing is stored and no server is needed.

Examples:
  taskboard score --priority high --due 2024-06-11
  taskboard score --description "$(cat notes.txt)"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := api.ScoreInputFrom(api.ScoreRequest{
			Description: scoreDescription,
			Priority:    scorePriority,
			DueDate:     scoreDue,
		})
		if err != nil {
			return err
		}

		engine := services.NewScoringEngine()
		if a := GetApp(); a != nil && a.ScoringEngine != nil {
			engine = a.ScoringEngine
		}

		PrintBreakdown(cmd.OutOrStdout(), engine.Explain(input))
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&scorePriority, "priority", "p", "", "priority (low, medium, high)")
	scoreCmd.Flags().StringVarP(&scoreDescription, "description", "d", "", "task description")
	scoreCmd.Flags().StringVar(&scoreDue, "due", "", "due date (YYYY-MM-DD)")
	rootCmd.AddCommand(scoreCmd)
}
