package commands

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/domain/entity"
	"github.com/tcrawf/zebra/internal/domain/frame"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewLogCmd creates the log command.
func NewLogCmd() *cobra.Command {
	var from, to string
	var projects, excludeProjects []string
	var issues, excludeIssues []string
	var includePartial bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List tracked frames",
		Long: `List closed and open frames, optionally narrowed by date window,
project and issue key.

The date window matches frames fully contained in it; --include-partial
also matches frames that merely overlap it. Issue keys (such as OPS-1423)
are taken from frame descriptions.`,
		Example: `  # Everything tracked this week
  zebra log --from "monday"

  # One project, excluding an issue
  zebra log --project backend --exclude-issue OPS-1423`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, from, to, projects, excludeProjects, issues, excludeIssues, includePartial)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start date (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "window end date (inclusive)")
	cmd.Flags().StringArrayVarP(&projects, "project", "p", nil, "only frames on this project (repeatable)")
	cmd.Flags().StringArrayVarP(&excludeProjects, "exclude-project", "P", nil, "drop frames on this project (repeatable)")
	cmd.Flags().StringArrayVarP(&issues, "issue", "i", nil, "only frames mentioning this issue key (repeatable)")
	cmd.Flags().StringArrayVarP(&excludeIssues, "exclude-issue", "I", nil, "drop frames mentioning this issue key (repeatable)")
	cmd.Flags().BoolVar(&includePartial, "include-partial", false, "also match frames partially inside the window")

	return cmd
}

func runLog(cmd *cobra.Command, from, to string, projects, excludeProjects, issues, excludeIssues []string, includePartial bool) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	filter := frame.Filter{
		IssueKeys:        issues,
		ExcludeIssueKeys: excludeIssues,
		IncludePartial:   includePartial,
	}

	if from != "" {
		d, err := parseDateArg(container, from, timesheet.Date{})
		if err != nil {
			return err
		}
		filter.From = d.Time()
	}
	if to != "" {
		d, err := parseDateArg(container, to, timesheet.Date{})
		if err != nil {
			return err
		}
		// The flag is an inclusive date, the filter bound an exclusive instant.
		filter.To = d.AddDays(1).Time()
	}

	keys, err := resolveProjectKeys(cmd, projects)
	if err != nil {
		return err
	}
	filter.ProjectKeys = keys

	excludeKeys, err := resolveProjectKeys(cmd, excludeProjects)
	if err != nil {
		return err
	}
	filter.ExcludeProjectKeys = excludeKeys

	frames, err := container.Tracker().List(ctx, filter)
	if err != nil {
		return err
	}
	sort.Slice(frames, frame.ByStartTime(frames))

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(frames)
	}

	if len(frames) == 0 {
		formatter.Println("No frames match.")
		return nil
	}

	if err := formatter.Table(output.FrameTable(frames)); err != nil {
		return err
	}

	var total time.Duration
	for _, f := range frames {
		total += f.Duration()
	}
	formatter.Println("")
	formatter.Println("Total: %s over %d frames", output.FormatDuration(total), len(frames))
	return nil
}

// resolveProjectKeys turns project references into entity keys for filtering.
func resolveProjectKeys(cmd *cobra.Command, refs []string) ([]entity.Key, error) {
	container := GetContainer()

	var keys []entity.Key
	for _, ref := range refs {
		p, err := container.ProjectCatalog().Resolve(cmd.Context(), ref)
		if err != nil {
			return nil, err
		}
		keys = append(keys, p.Key)
	}
	return keys, nil
}
