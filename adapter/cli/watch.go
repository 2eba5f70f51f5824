package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/observer"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/infrastructure/realtime"
	"github.com/spf13/cobra"
)

var (
	watchBoard bool
	watchLimit int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream task changes as they happen",
	Long: `Connect to the server as an observer and print every task-created,
task-updated and task-deleted event. With --board the score-sorted board
is redrawn after each event.

Examples:
  taskboard watch
  taskboard watch --board --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := GetClient()
		if err != nil {
			return err
		}
		return Watch(cmd.Context(), client.BaseURL(), func(ctx context.Context) ([]queries.TaskDTO, error) {
			return client.ListTasks(ctx, queries.ListTasksQuery{})
		}, cmd.OutOrStdout(), watchBoard, watchLimit)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchBoard, "board", false, "redraw the sorted board after every event")
	watchCmd.Flags().IntVar(&watchLimit, "limit", 0, "rows to show on the board (0 for all)")
	rootCmd.AddCommand(watchCmd)
}

// Watch subscribes to the server at baseURL and writes events to out until
// ctx is canceled or the server closes the stream. snapshot seeds the local
// view after the subscription is open, so no event is missed in between.
func Watch(ctx context.Context, baseURL string, snapshot func(context.Context) ([]queries.TaskDTO, error), out io.Writer, board bool, limit int) error {
	stream, err := realtime.Dial(ctx, baseURL, nil)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = stream.Close()
		case <-stop:
			_ = stream.Close()
		}
	}()

	initial, err := snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	view := observer.NewLocalView(initial)
	fmt.Fprintf(out, "watching %s (%d tasks)\n", baseURL, view.Len())
	if board {
		printBoard(out, view, limit)
	}

	for {
		frame, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil || realtime.IsNormalClose(err) {
				return nil
			}
			return fmt.Errorf("observer stream failed: %w", err)
		}
		if err := view.Apply(frame); err != nil {
			Logger().Warn("ignoring frame", "event", string(frame.Event), "error", err)
			continue
		}

		printFrame(out, frame)
		if board {
			printBoard(out, view, limit)
		}
	}
}

func printFrame(out io.Writer, f observer.Frame) {
	if f.Task == nil {
		fmt.Fprintf(out, "%-13s %s\n", f.Event, f.TaskID())
		return
	}
	fmt.Fprintf(out, "%-13s %3d  %s  (%s)\n", f.Event, f.Task.AIScore, f.Task.Title, f.Task.ID)
}

func printBoard(out io.Writer, view *observer.LocalView, limit int) {
	tasks := view.Tasks()
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	PrintTaskTable(out, tasks)
	fmt.Fprintln(out)
}
