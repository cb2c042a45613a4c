package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/infrastructure/watch"
	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var watchFlag bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the currently open frame",
		Long: `Display the currently open frame, or report that nothing is tracked.

With --watch the view re-renders whenever the frame data changes on disk,
for example when another terminal starts or stops a frame.`,
		Example: `  # Show the current frame once
  zebra status

  # Keep the view live
  zebra status --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, watchFlag)
		},
	}

	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "re-render when the frame data changes")

	return cmd
}

func runStatus(cmd *cobra.Command, watchFlag bool) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	if !watchFlag {
		return renderStatus(cmd)
	}

	watcher, err := watch.NewWatcher(watch.DefaultConfig())
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Watch(ctx, container.FramesPath()); err != nil {
		return err
	}

	if err := renderStatus(cmd); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if err := renderStatus(cmd); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			formatter.Warning("watch error: %v", err)
		}
	}
}

func renderStatus(cmd *cobra.Command) error {
	formatter := GetFormatter()
	container := GetContainer()

	current, err := container.Tracker().Current(cmd.Context())
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		if current == nil {
			return formatter.JSON(map[string]any{"tracking": false})
		}
		return formatter.JSON(map[string]any{"tracking": true, "frame": current})
	}

	if current == nil {
		formatter.Println("No frame started.")
		return nil
	}

	elapsed := time.Since(current.StartTime)
	formatter.Println("Tracking %s for %s (since %s)",
		formatter.Bold(output.ActivityLabel(current.Activity)),
		output.FormatDuration(elapsed),
		output.FormatClock(current.StartTime))
	if current.Description != "" {
		formatter.Item("Description", current.Description)
	}
	if !current.Assignment.IsIndividual() {
		formatter.Item("Role", current.Assignment.String())
	}
	return nil
}
