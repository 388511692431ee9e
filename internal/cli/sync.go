package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/usecase"
)

// newSyncCommand creates the sync command.
func newSyncCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Bring the workspace to the tip of the baseline branch",
		Long: `Clone the target repository if needed, discard local modifications,
check out the baseline branch and pull it.

apply and test synchronize on their own; use this command to prepare the
workspace ahead of time or to recover it by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.SyncWorkspaceUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.SyncWorkspaceInput{})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Synchronized %s at %s (%s)\n",
				out.Dir, out.Branch, shortID(out.Commit))
			return nil
		},
	}
}
