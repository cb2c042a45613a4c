package commands

import (
	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewStopCmd creates the stop command.
func NewStopCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the current frame",
		Long: `Close the currently open frame and add it to the log.

The stop time defaults to now; --at sets it explicitly, as long as it stays
after the frame's start and not in the future.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, at)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "explicit stop time (RFC3339, HH:MM or natural language)")

	return cmd
}

func runStop(cmd *cobra.Command, at string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	stopAt, err := parseTimeArg(container, at)
	if err != nil {
		return err
	}

	f, err := container.Tracker().Stop(ctx, stopAt)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(f)
	}

	formatter.Success("Stopped %s after %s", output.ActivityLabel(f.Activity), output.FormatDuration(f.Duration()))
	formatter.Frame(f)
	return nil
}
