package commands

import (
	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewEditCmd creates the edit command.
func NewEditCmd() *cobra.Command {
	var start, stop, description, activityRef string

	cmd := &cobra.Command{
		Use:   "edit <frame>",
		Short: "Edit a logged frame",
		Long: `Replace fields of a logged frame. The frame keeps its uuid, so
timesheets built from it stay attributed.

The edited frame must still satisfy the ordering rules: start before stop,
nothing in the future.`,
		Example: `  # Fix a stop time
  zebra edit 1b9d6bcd --stop 17:30

  # Move a frame to another activity
  zebra edit 1b9d6bcd --activity backend`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], start, stop, description, activityRef)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "new start time")
	cmd.Flags().StringVar(&stop, "stop", "", "new stop time")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&activityRef, "activity", "a", "", "new activity (alias, key or name)")

	return cmd
}

func runEdit(cmd *cobra.Command, frameRef, start, stop, description, activityRef string) error {
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

	if start != "" {
		at, err := parseTimeArg(container, start)
		if err != nil {
			return err
		}
		f.StartTime = at.UTC()
	}
	if stop != "" {
		at, err := parseTimeArg(container, stop)
		if err != nil {
			return err
		}
		utc := at.UTC()
		f.StopTime = &utc
	}
	if cmd.Flags().Changed("description") {
		f.Description = description
	}
	if activityRef != "" {
		activity, err := resolveActivity(ctx, container, activityRef)
		if err != nil {
			return err
		}
		f.Activity = activity
	}

	updated, err := container.Tracker().Edit(ctx, f)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(updated)
	}

	formatter.Success("Updated frame %s", output.ShortID(updated.UUID))
	formatter.Frame(updated)
	return nil
}
