package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/presentation/cli/output"
)

// NewUpdateCmd creates the update command.
func NewUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh projects, activities and roles from Zebra",
		Long: `Fetch the project catalog and the user's roles from the Zebra API and
replace the local mirror with them. Everything else works offline against
that mirror.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd)
		},
	}

	return cmd
}

func runUpdate(cmd *cobra.Command) error {
	formatter := GetFormatter()
	container := GetContainer()

	if err := requireRemote(container); err != nil {
		return err
	}

	result, err := container.Refresher().Refresh(cmd.Context())
	if err != nil {
		return err
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result)
	}

	formatter.Success("Updated reference data from Zebra")
	formatter.Item("Projects", fmt.Sprintf("%d", result.Projects))
	formatter.Item("Activities", fmt.Sprintf("%d", result.Activities))
	formatter.Item("Roles", fmt.Sprintf("%d", result.Roles))
	return nil
}
