package commands

import (
	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewCancelCmd creates the cancel command.
func NewCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Discard the current frame",
		Long:  `Discard the currently open frame without adding it to the log.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCancel(cmd)
		},
	}

	return cmd
}

func runCancel(cmd *cobra.Command) error {
	formatter := GetFormatter()
	container := GetContainer()

	f, err := container.Tracker().Cancel(cmd.Context())
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(f)
	}

	formatter.Success("Cancelled %s (started at %s)", output.ActivityLabel(f.Activity), output.FormatClock(f.StartTime))
	return nil
}
