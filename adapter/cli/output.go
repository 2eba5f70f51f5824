package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/services"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
)

const maxTitleWidth = 48

// PrintTask writes the details of one task.
func PrintTask(w io.Writer, t queries.TaskDTO) {
	fmt.Fprintf(w, "%s\n", t.Title)
	fmt.Fprintf(w, "  id:        %s\n", t.ID)
	fmt.Fprintf(w, "  score:     %d\n", t.AIScore)
	fmt.Fprintf(w, "  priority:  %s\n", t.Priority)
	fmt.Fprintf(w, "  status:    %s\n", t.Status)
	if t.DueDate != nil {
		fmt.Fprintf(w, "  due:       %s\n", t.DueDate.UTC().Format(task.DueDateLayout))
	}
	if t.Description != "" {
		fmt.Fprintf(w, "  details:   %s\n", t.Description)
	}
	fmt.Fprintf(w, "  updated:   %s\n", t.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

// PrintTaskTable writes tasks as an aligned table in the given order.
func PrintTaskTable(w io.Writer, tasks []queries.TaskDTO) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tPRIORITY\tSTATUS\tDUE\tTITLE\tID")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.UTC().Format(task.DueDateLayout)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.AIScore, t.Priority, t.Status, due, truncate(t.Title, maxTitleWidth), shortID(t.ID.String()))
	}
	_ = tw.Flush()
}

// PrintAnalytics writes an analytics summary.
func PrintAnalytics(w io.Writer, s queries.AnalyticsSummary) {
	fmt.Fprintf(w, "Tasks:          %d\n", s.TotalTasks)
	fmt.Fprintf(w, "High priority:  %d\n", s.HighPriority)
	fmt.Fprintf(w, "Average score:  %.2f\n", s.AverageAIScore)
	fmt.Fprintln(w, "By status:")
	for _, status := range []string{"pending", "in-progress", "completed"} {
		fmt.Fprintf(w, "  %-12s %d\n", status, s.ByStatus[status])
	}
}

// PrintBreakdown writes how a score was reached.
func PrintBreakdown(w io.Writer, b services.ScoreBreakdown) {
	fmt.Fprintf(w, "base       %+d\n", b.Base)
	if b.DaysUntilDue != nil {
		fmt.Fprintf(w, "urgency    %+d  (due in %d days)\n", b.Urgency, *b.DaysUntilDue)
	} else {
		fmt.Fprintf(w, "urgency    %+d  (no due date)\n", b.Urgency)
	}
	fmt.Fprintf(w, "priority   %+d\n", b.Priority)
	fmt.Fprintf(w, "verbosity  %+d\n", b.Verbosity)
	fmt.Fprintln(w, strings.Repeat("-", 20))
	if b.CappedAtLimit {
		fmt.Fprintf(w, "score      %d  (capped from %d)\n", b.Score, b.Total)
	} else {
		fmt.Fprintf(w, "score      %d\n", b.Score)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
