package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/application/ports"
	appSync "github.com/tcrawf/zebra/internal/application/sync"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewTimesheetCmd creates the timesheet command group.
func NewTimesheetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "timesheet",
		Aliases: []string{"ts"},
		Short:   "Build, inspect and synchronize timesheets",
		Long: `Timesheets are quarter-hour billable records derived from frames and
synchronized with the Zebra service.

build groups closed frames into local timesheets; push, pull and delete
reconcile them with Zebra. Records put on hold are never pushed.`,
	}

	cmd.AddCommand(NewTimesheetBuildCmd())
	cmd.AddCommand(NewTimesheetListCmd())
	cmd.AddCommand(NewTimesheetShowCmd())
	cmd.AddCommand(NewTimesheetMergeCmd())
	cmd.AddCommand(NewTimesheetPushCmd())
	cmd.AddCommand(NewTimesheetPullCmd())
	cmd.AddCommand(NewTimesheetDeleteCmd())
	cmd.AddCommand(NewTimesheetHoldCmd())

	return cmd
}

// dateWindow parses the --from/--to pair, both defaulting to today.
func dateWindow(from, to string) (timesheet.Date, timesheet.Date, error) {
	container := GetContainer()
	today := timesheet.DateOf(time.Now())

	fromDate, err := parseDateArg(container, from, today)
	if err != nil {
		return timesheet.Date{}, timesheet.Date{}, err
	}
	toDate, err := parseDateArg(container, to, today)
	if err != nil {
		return timesheet.Date{}, timesheet.Date{}, err
	}
	return fromDate, toDate, nil
}

// NewTimesheetBuildCmd creates the timesheet build command.
func NewTimesheetBuildCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Derive timesheets from closed frames",
		Long: `Group the closed frames of the date window by date, activity and role,
and create one local timesheet per group with the total duration rounded up
to the quarter hour. Frames already attributed to a timesheet are skipped,
so building repeatedly is safe.`,
		Example: `  # Build today's timesheets
  zebra timesheet build

  # Build a whole week
  zebra timesheet build --from monday --to friday`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimesheetBuild(cmd, from, to)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start date (default today)")
	cmd.Flags().StringVar(&to, "to", "", "window end date (default today)")

	return cmd
}

func runTimesheetBuild(cmd *cobra.Command, from, to string) error {
	formatter := GetFormatter()
	container := GetContainer()

	fromDate, toDate, err := dateWindow(from, to)
	if err != nil {
		return err
	}

	result, err := container.SyncBuilder().Build(cmd.Context(), fromDate, toDate)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result)
	}

	if len(result.Created) == 0 {
		formatter.Println("Nothing to build (%d frames already attributed).", result.FramesSkipped)
		return nil
	}

	formatter.Success("Built %d timesheets from %d frames (%d already attributed)",
		len(result.Created), result.FramesUsed, result.FramesSkipped)
	return formatter.Table(output.TimesheetTable(result.Created))
}

// NewTimesheetListCmd creates the timesheet list command.
func NewTimesheetListCmd() *cobra.Command {
	var from, to string
	var unsynced bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local timesheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimesheetList(cmd, from, to, unsynced)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start date (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "window end date (inclusive)")
	cmd.Flags().BoolVarP(&unsynced, "unsynced", "u", false, "only records never pushed to Zebra")

	return cmd
}

func runTimesheetList(cmd *cobra.Command, from, to string, unsynced bool) error {
	formatter := GetFormatter()
	container := GetContainer()

	filter := ports.TimesheetFilter{Unsynced: unsynced}
	if from != "" {
		d, err := parseDateArg(container, from, timesheet.Date{})
		if err != nil {
			return err
		}
		filter.From = d
	}
	if to != "" {
		d, err := parseDateArg(container, to, timesheet.Date{})
		if err != nil {
			return err
		}
		filter.To = d
	}

	sheets, err := container.SyncService().List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(sheets)
	}

	if len(sheets) == 0 {
		formatter.Println("No timesheets.")
		return nil
	}
	return formatter.Table(output.TimesheetTable(sheets))
}

// NewTimesheetShowCmd creates the timesheet show command.
func NewTimesheetShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <timesheet>",
		Short: "Show one timesheet in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimesheetShow(cmd, args[0])
		},
	}

	return cmd
}

func runTimesheetShow(cmd *cobra.Command, ref string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	id, err := resolveTimesheetID(ctx, container, ref)
	if err != nil {
		return err
	}
	ts, err := container.SyncService().Get(ctx, id)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(ts)
	}

	formatter.Header(fmt.Sprintf("Timesheet %s", output.ShortID(ts.UUID)))
	formatter.Item("Date", ts.Date.String())
	formatter.Item("Activity", output.ActivityLabel(ts.Activity))
	formatter.Item("Hours", fmt.Sprintf("%.2f", ts.Time))
	formatter.Item("Assignment", ts.Assignment.String())
	if ts.Description != "" {
		formatter.Item("Description", ts.Description)
	}
	if ts.ClientDescription != "" {
		formatter.Item("Client note", ts.ClientDescription)
	}
	if ts.RemoteID != nil {
		formatter.Item("Remote id", fmt.Sprintf("%d", *ts.RemoteID))
	} else {
		formatter.Item("Remote id", "not pushed")
	}
	formatter.Item("Updated", ts.UpdatedAt.Local().Format(time.RFC3339))
	if ts.DoNotSync {
		formatter.Item("Hold", "yes")
	}
	for _, fid := range ts.FrameUUIDs {
		formatter.BulletItem(fmt.Sprintf("frame %s", output.ShortID(fid)))
	}
	return nil
}

// NewTimesheetMergeCmd creates the timesheet merge command.
func NewTimesheetMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <timesheet> <timesheet>...",
		Short: "Merge timesheets of the same activity",
		Long: `Merge two or more local timesheets into one. All inputs must share the
same activity and role; hours add up, descriptions concatenate, and a
record on hold keeps the merged record on hold. The merged record takes
the first input's date, drops any remote link, and is pushed as a new
entry on the next push.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimesheetMerge(cmd, args)
		},
	}

	return cmd
}

func runTimesheetMerge(cmd *cobra.Command, refs []string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := resolveTimesheetID(ctx, container, ref)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	merged, err := container.SyncService().Merge(ctx, ids)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(merged)
	}

	formatter.Success("Merged %d timesheets into %s (%.2f hours)", len(ids), output.ShortID(merged.UUID), merged.Time)
	return nil
}

// NewTimesheetPushCmd creates the timesheet push command.
func NewTimesheetPushCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "push [timesheet]",
		Short: "Push timesheets to Zebra",
		Long: `Push one timesheet, or every timesheet in the date window.

New records are created remotely and linked; records whose remote copy
moved since the local one are overwritten only after confirmation. Records
on hold are skipped.`,
		Example: `  # Push everything from today
  zebra timesheet push

  # Push a whole week without prompting
  zebra timesheet push --from monday --to friday --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			return runTimesheetPush(cmd, ref, from, to)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start date (default today)")
	cmd.Flags().StringVar(&to, "to", "", "window end date (default today)")

	return cmd
}

func runTimesheetPush(cmd *cobra.Command, ref, from, to string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	if err := requireRemote(container); err != nil {
		return err
	}
	confirm := getConfirm()

	var results []appSync.PushResult
	if ref != "" {
		id, err := resolveTimesheetID(ctx, container, ref)
		if err != nil {
			return err
		}
		result, err := container.SyncService().Push(ctx, id, confirm)
		if err != nil {
			return err
		}
		results = append(results, result)
	} else {
		fromDate, toDate, err := dateWindow(from, to)
		if err != nil {
			return err
		}
		results, err = container.SyncService().PushRange(ctx, fromDate, toDate, confirm)
		if err != nil {
			return err
		}
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(results)
	}

	var created, updated, skipped, failed int
	for _, r := range results {
		switch r.Status {
		case appSync.PushCreated:
			created++
		case appSync.PushUpdated:
			updated++
		case appSync.PushSkipped:
			skipped++
			formatter.Println("Skipped %s: %s", output.ShortID(r.Timesheet.UUID), r.Reason)
		case appSync.PushFailed:
			failed++
			formatter.Error("Failed %s: %v", output.ShortID(r.Timesheet.UUID), r.Err)
		}
	}

	if failed > 0 {
		formatter.Warning("Pushed with failures: %d created, %d updated, %d skipped, %d failed",
			created, updated, skipped, failed)
		return fmt.Errorf("%d timesheets failed to push", failed)
	}
	formatter.Success("Pushed: %d created, %d updated, %d skipped", created, updated, skipped)
	return nil
}

// NewTimesheetPullCmd creates the timesheet pull command.
func NewTimesheetPullCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull timesheets from Zebra",
		Long: `Fetch the remote timesheets of the date window and write them into the
local collection. Local records with unpushed changes are only overwritten
after confirmation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimesheetPull(cmd, from, to)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start date (default today)")
	cmd.Flags().StringVar(&to, "to", "", "window end date (default today)")

	return cmd
}

func runTimesheetPull(cmd *cobra.Command, from, to string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	if err := requireRemote(container); err != nil {
		return err
	}

	fromDate, toDate, err := dateWindow(from, to)
	if err != nil {
		return err
	}

	result, err := container.SyncService().Pull(ctx, fromDate, toDate, getConfirm())
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result)
	}

	for _, skipped := range result.Skipped {
		formatter.Println("Skipped remote %d: %s", skipped.RemoteID, skipped.Reason)
	}
	formatter.Success("Pulled %d timesheets (%d skipped)", len(result.Written), len(result.Skipped))
	if len(result.Written) > 0 {
		return formatter.Table(output.TimesheetTable(result.Written))
	}
	return nil
}

// NewTimesheetDeleteCmd creates the timesheet delete command.
func NewTimesheetDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <timesheet>",
		Short: "Delete a timesheet locally and remotely",
		Long: `Delete a local timesheet. A record that exists remotely is deleted on
the Zebra side first, after confirmation; if the remote delete fails the
local record is removed anyway and a warning names the orphaned remote id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimesheetDelete(cmd, args[0])
		},
	}

	return cmd
}

func runTimesheetDelete(cmd *cobra.Command, ref string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	id, err := resolveTimesheetID(ctx, container, ref)
	if err != nil {
		return err
	}

	result, err := container.SyncService().Delete(ctx, id, getConfirm())
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result)
	}

	if result.Aborted {
		formatter.Warning("Aborted.")
		return nil
	}
	if result.Warning != "" {
		formatter.Warning("%s", result.Warning)
	}
	formatter.Success("Deleted timesheet %s", output.ShortID(id))
	return nil
}

// NewTimesheetHoldCmd creates the timesheet hold command.
func NewTimesheetHoldCmd() *cobra.Command {
	var release bool

	cmd := &cobra.Command{
		Use:   "hold <timesheet>",
		Short: "Exclude a timesheet from pushes",
		Long: `Put a timesheet on hold so pushes skip it, or release it again with
--release. Useful for records that are not ready to be billed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimesheetHold(cmd, args[0], !release)
		},
	}

	cmd.Flags().BoolVar(&release, "release", false, "release the hold")

	return cmd
}

func runTimesheetHold(cmd *cobra.Command, ref string, hold bool) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	id, err := resolveTimesheetID(ctx, container, ref)
	if err != nil {
		return err
	}

	ts, err := container.SyncService().SetHold(ctx, id, hold)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(ts)
	}

	if hold {
		formatter.Success("Timesheet %s is on hold", output.ShortID(ts.UUID))
	} else {
		formatter.Success("Timesheet %s released", output.ShortID(ts.UUID))
	}
	return nil
}
