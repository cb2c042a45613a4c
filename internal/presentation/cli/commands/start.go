package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/application/track"
	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewStartCmd creates the start command.
func NewStartCmd() *cobra.Command {
	var at string
	var noGap bool
	var roleID int64

	cmd := &cobra.Command{
		Use:   "start <activity> [description...]",
		Short: "Start tracking time on an activity",
		Long: `Start a new frame on the given activity.

The activity may be referenced by alias, by entity key (local:<uuid> or
remote:<id>) or by exact name. Only one frame can be open at a time.`,
		Example: `  # Start on an aliased activity
  zebra start backend "reviewing pull requests"

  # Start retroactively
  zebra start backend --at "10 minutes ago"

  # Continue seamlessly from the previous frame's stop time
  zebra start backend --no-gap`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, args[0], strings.Join(args[1:], " "), at, noGap, roleID)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "explicit start time (RFC3339, HH:MM or natural language)")
	cmd.Flags().BoolVar(&noGap, "no-gap", false, "start where the previous frame stopped")
	cmd.Flags().Int64Var(&roleID, "role", 0, "book the work against a Zebra role id")

	return cmd
}

func runStart(cmd *cobra.Command, activityRef, description, at string, noGap bool, roleID int64) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	activity, err := resolveActivity(ctx, container, activityRef)
	if err != nil {
		return err
	}
	startAt, err := parseTimeArg(container, at)
	if err != nil {
		return err
	}
	assignment, err := resolveAssignment(ctx, container, roleID)
	if err != nil {
		return err
	}

	f, err := container.Tracker().Start(ctx, track.StartOptions{
		Activity:    activity,
		Description: description,
		At:          startAt,
		Gap:         !noGap,
		Assignment:  assignment,
	})
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(f)
	}

	formatter.Success("Started %s at %s", output.ActivityLabel(f.Activity), output.FormatClock(f.StartTime))
	if f.Description != "" {
		formatter.Item("Description", f.Description)
	}
	return nil
}
