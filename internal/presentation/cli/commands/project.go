package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewProjectCmd creates the project command group.
func NewProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
		Long: `List and manage projects.

Projects come from two places: created locally, or mirrored from Zebra by
the update command. Remote projects are read-only.`,
	}

	cmd.AddCommand(NewProjectListCmd())
	cmd.AddCommand(NewProjectAddCmd())
	cmd.AddCommand(NewProjectRemoveCmd())
	cmd.AddCommand(NewProjectShowCmd())

	return cmd
}

// NewProjectListCmd creates the project list command.
func NewProjectListCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectList(cmd, query)
		},
	}

	cmd.Flags().StringVarP(&query, "search", "s", "", "only projects whose name matches")

	return cmd
}

func runProjectList(cmd *cobra.Command, query string) error {
	formatter := GetFormatter()
	container := GetContainer()

	var projects []project.Project
	var err error
	if query != "" {
		projects, err = container.ProjectCatalog().Search(cmd.Context(), query)
	} else {
		projects, err = container.ProjectCatalog().All(cmd.Context())
	}
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(projects)
	}

	if len(projects) == 0 {
		formatter.Println("No projects.")
		return nil
	}

	data := output.TableData{
		Columns: []output.TableColumn{
			{Header: "KEY"},
			{Header: "NAME"},
			{Header: "SOURCE"},
			{Header: "DESCRIPTION"},
		},
	}
	for _, p := range projects {
		data.Rows = append(data.Rows, []string{
			p.Key.String(),
			p.Name,
			string(p.Key.Source()),
			p.Description,
		})
	}
	return formatter.Table(data)
}

// NewProjectAddCmd creates the project add command.
func NewProjectAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> [description...]",
		Short: "Create a local project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectAdd(cmd, args[0], strings.Join(args[1:], " "))
		},
	}

	return cmd
}

func runProjectAdd(cmd *cobra.Command, name, description string) error {
	formatter := GetFormatter()
	container := GetContainer()

	p, err := container.ProjectCatalog().Create(cmd.Context(), name, description)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(p)
	}

	formatter.Success("Created project %s (%s)", p.Name, p.Key)
	return nil
}

// NewProjectRemoveCmd creates the project remove command.
func NewProjectRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <project>",
		Short: "Delete a local project and its activities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectRemove(cmd, args[0])
		},
	}

	return cmd
}

func runProjectRemove(cmd *cobra.Command, ref string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	p, err := container.ProjectCatalog().Resolve(ctx, ref)
	if err != nil {
		return err
	}

	confirm := getConfirm()
	if !confirm(fmt.Sprintf("Delete project %s and its local activities?", p.Name)) {
		formatter.Warning("Aborted.")
		return nil
	}

	if err := container.ProjectCatalog().Delete(ctx, p.Key); err != nil {
		return err
	}

	formatter.Success("Removed project %s", p.Name)
	return nil
}

// NewProjectShowCmd creates the project show command.
func NewProjectShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project>",
		Short: "Show a project and its activities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectShow(cmd, args[0])
		},
	}

	return cmd
}

func runProjectShow(cmd *cobra.Command, ref string) error {
	formatter := GetFormatter()
	container := GetContainer()
	ctx := cmd.Context()

	p, err := container.ProjectCatalog().Resolve(ctx, ref)
	if err != nil {
		return err
	}
	activities, err := container.ActivityCatalog().ByProject(ctx, p.Key)
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(map[string]any{"project": p, "activities": activities})
	}

	formatter.Header(p.Name)
	formatter.Item("Key", p.Key.String())
	formatter.Item("Source", string(p.Key.Source()))
	if p.Description != "" {
		formatter.Item("Description", p.Description)
	}

	if len(activities) == 0 {
		formatter.Println("")
		formatter.Println("No activities.")
		return nil
	}

	formatter.Println("")
	for _, a := range activities {
		formatter.BulletItem(fmt.Sprintf("%s  %s", a.Key, output.ActivityLabel(a)))
	}
	return nil
}
