package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/application/track"
	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewAddCmd creates the add command.
func NewAddCmd() *cobra.Command {
	var from, to string
	var roleID int64

	cmd := &cobra.Command{
		Use:   "add <activity> [description...]",
		Short: "Log an already finished interval",
		Long: `Add a closed frame directly to the log without touching the current frame.

Both --from and --to are required and may use fixed layouts or natural
language. The interval may not reach into the future.`,
		Example: `  # Log this morning's meeting
  zebra add meetings --from 09:00 --to 09:45 "sprint planning"

  # Log work from yesterday
  zebra add backend --from "yesterday 14:00" --to "yesterday 16:30"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, args[0], strings.Join(args[1:], " "), from, to, roleID)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "interval start (required)")
	cmd.Flags().StringVar(&to, "to", "", "interval end (required)")
	cmd.Flags().Int64Var(&roleID, "role", 0, "book the work against a Zebra role id")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runAdd(cmd *cobra.Command, activityRef, description, from, to string, roleID int64) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	activity, err := resolveActivity(ctx, container, activityRef)
	if err != nil {
		return err
	}
	fromAt, err := parseTimeArg(container, from)
	if err != nil {
		return err
	}
	toAt, err := parseTimeArg(container, to)
	if err != nil {
		return err
	}
	assignment, err := resolveAssignment(ctx, container, roleID)
	if err != nil {
		return err
	}

	f, err := container.Tracker().Add(ctx, track.AddOptions{
		Activity:    activity,
		From:        fromAt,
		To:          toAt,
		Description: description,
		Assignment:  assignment,
	})
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(f)
	}

	formatter.Success("Added %s (%s)", output.ActivityLabel(f.Activity), output.FormatDuration(f.Duration()))
	formatter.Frame(f)
	return nil
}
