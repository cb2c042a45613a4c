package commands

import (
	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewRestartCmd creates the restart command.
func NewRestartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Start a new frame on the last closed frame's activity",
		Long: `Open a new frame carrying the activity and description of the most
recently closed frame. Valid only while idle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestart(cmd)
		},
	}

	return cmd
}

func runRestart(cmd *cobra.Command) error {
	formatter := GetFormatter()
	container := GetContainer()

	f, err := container.Tracker().Restart(cmd.Context())
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(f)
	}

	formatter.Success("Restarted %s at %s", output.ActivityLabel(f.Activity), output.FormatClock(f.StartTime))
	return nil
}
