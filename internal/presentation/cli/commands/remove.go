package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <frame>",
		Short: "Delete a logged frame",
		Long: `Delete a frame from the log. Timesheets already built from it keep
their booked time; only the provenance link goes dangling.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args[0])
		},
	}

	return cmd
}

func runRemove(cmd *cobra.Command, frameRef string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	id, err := resolveFrameID(ctx, container, frameRef)
	if err != nil {
		return err
	}

	f, err := container.Tracker().Get(ctx, id)
	if err != nil {
		return err
	}

	confirm := getConfirm()
	if !confirm(fmt.Sprintf("Delete frame %s (%s, %s)?", output.ShortID(f.UUID), output.ActivityLabel(f.Activity), output.FormatDuration(f.Duration()))) {
		formatter.Warning("Aborted.")
		return nil
	}

	if err := container.Tracker().Remove(ctx, id); err != nil {
		return err
	}

	formatter.Success("Removed frame %s", output.ShortID(id))
	return nil
}
