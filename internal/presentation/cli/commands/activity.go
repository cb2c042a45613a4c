package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewActivityCmd creates the activity command group.
func NewActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Manage activities",
		Long: `List and manage the bookable activities inside projects.

Like projects, activities are either local or mirrored from Zebra. Local
activities may hang off remote projects. An alias gives an activity a short
handle usable anywhere a command takes an activity argument.`,
	}

	cmd.AddCommand(NewActivityListCmd())
	cmd.AddCommand(NewActivityAddCmd())
	cmd.AddCommand(NewActivityRemoveCmd())
	cmd.AddCommand(NewActivityAliasCmd())

	return cmd
}

// NewActivityListCmd creates the activity list command.
func NewActivityListCmd() *cobra.Command {
	var projectRef, query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivityList(cmd, projectRef, query)
		},
	}

	cmd.Flags().StringVarP(&projectRef, "project", "p", "", "only activities under this project")
	cmd.Flags().StringVarP(&query, "search", "s", "", "only activities whose name or alias matches")

	return cmd
}

func runActivityList(cmd *cobra.Command, projectRef, query string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	var activities []project.Activity
	var err error
	switch {
	case projectRef != "":
		var p project.Project
		p, err = container.ProjectCatalog().Resolve(ctx, projectRef)
		if err != nil {
			return err
		}
		activities, err = container.ActivityCatalog().ByProject(ctx, p.Key)
	case query != "":
		activities, err = container.ActivityCatalog().Search(ctx, query)
	default:
		activities, err = container.ActivityCatalog().All(ctx)
	}
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(activities)
	}

	if len(activities) == 0 {
		formatter.Println("No activities.")
		return nil
	}

	data := output.TableData{
		Columns: []output.TableColumn{
			{Header: "KEY"},
			{Header: "NAME"},
			{Header: "ALIAS"},
			{Header: "PROJECT"},
			{Header: "SOURCE"},
		},
	}
	for _, a := range activities {
		data.Rows = append(data.Rows, []string{
			a.Key.String(),
			a.Name,
			a.Alias,
			a.ProjectKey.String(),
			string(a.Key.Source()),
		})
	}
	return formatter.Table(data)
}

// NewActivityAddCmd creates the activity add command.
func NewActivityAddCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "add <project> <name> [description...]",
		Short: "Create a local activity under a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivityAdd(cmd, args[0], args[1], strings.Join(args[2:], " "), alias)
		},
	}

	cmd.Flags().StringVarP(&alias, "alias", "a", "", "short handle, unique within the local store")

	return cmd
}

func runActivityAdd(cmd *cobra.Command, projectRef, name, description, alias string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	p, err := container.ProjectCatalog().Resolve(ctx, projectRef)
	if err != nil {
		return err
	}

	a, err := container.ActivityCatalog().Create(ctx, p.Key, name, alias, description)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(a)
	}

	formatter.Success("Created activity %s under %s (%s)", output.ActivityLabel(a), p.Name, a.Key)
	return nil
}

// NewActivityRemoveCmd creates the activity remove command.
func NewActivityRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <activity>",
		Short: "Delete a local activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivityRemove(cmd, args[0])
		},
	}

	return cmd
}

func runActivityRemove(cmd *cobra.Command, ref string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	a, err := resolveActivity(ctx, container, ref)
	if err != nil {
		return err
	}

	confirm := getConfirm()
	if !confirm(fmt.Sprintf("Delete activity %s?", output.ActivityLabel(a))) {
		formatter.Warning("Aborted.")
		return nil
	}

	if err := container.ActivityCatalog().Delete(ctx, a.Key); err != nil {
		return err
	}

	formatter.Success("Removed activity %s", output.ActivityLabel(a))
	return nil
}

// NewActivityAliasCmd creates the activity alias command.
func NewActivityAliasCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "alias <activity> [alias]",
		Short: "Set or clear an activity's alias",
		Example: `  # Give a local activity a short handle
  zebra activity alias "Code review" review

  # Drop it again
  zebra activity alias review --clear`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias := ""
			if len(args) == 2 {
				alias = args[1]
			}
			return runActivityAlias(cmd, args[0], alias, clear)
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "remove the alias")

	return cmd
}

func runActivityAlias(cmd *cobra.Command, ref, alias string, clear bool) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	a, err := resolveActivity(ctx, container, ref)
	if err != nil {
		return err
	}

	switch {
	case clear:
		a.Alias = ""
	case alias == "":
		return fmt.Errorf("an alias argument or --clear is required")
	default:
		a.Alias = alias
	}

	if err := container.ActivityCatalog().Update(ctx, a); err != nil {
		return err
	}

	if clear {
		formatter.Success("Cleared alias of %s", a.Name)
	} else {
		formatter.Success("Aliased %s as %q", a.Name, alias)
	}
	return nil
}
