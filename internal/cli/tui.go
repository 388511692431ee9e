package cli

import (
	"github.com/spf13/cobra"

	"github.com/runoshun/git-pilot/internal/app"
)

// newBoardCommand creates the board command for launching the task board.
// Running pilot without arguments does the same.
func newBoardCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "board",
		Aliases: []string{"tui"},
		Short:   "Launch the interactive task board",
		Long: `Launch the interactive task board.

The board lists tasks by status and refreshes when task records change
on disk, including changes made by another pilot process or the HTTP
server. Tasks can be applied, tested and closed from the board.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return launchTUIFunc(c)
		},
	}
}
