package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/usecase"
)

// newLogsCommand creates the logs command.
func newLogsCommand(c *app.Container) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "logs [id]",
		Short: "Show operational logs",
		Long: `Show the operational log of a task, or the global log without an id.

Examples:
  pilot logs
  pilot logs 3f2a9c1e -n 50`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				var err error
				if id, err = resolveTaskID(c.Tasks, args[0]); err != nil {
					return err
				}
			}

			uc := c.ShowLogsUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ShowLogsInput{TaskID: id, Lines: lines})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprint(cmd.OutOrStdout(), out.Content)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 0, "Number of lines from the end (0 = all)")

	return cmd
}
