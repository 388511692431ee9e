package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/domain"
)

// newWorkspacesCommand creates the workspaces command.
func newWorkspacesCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "workspaces",
		Aliases: []string{"ws"},
		Short:   "List known workspaces",
		Long:    `List the workspace clones recorded in .pilot/workspaces.toml.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.Workspaces.List()
			if err != nil {
				return fmt.Errorf("list workspaces: %w", err)
			}
			printWorkspaces(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

// printWorkspaces prints workspace entries in a table.
func printWorkspaces(w io.Writer, entries []domain.WorkspaceEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "PATH\tBRANCH\tLAST SYNCED\tURL")
	for _, e := range entries {
		synced := "-"
		if !e.LastSynced.IsZero() {
			synced = e.LastSynced.Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Path, valueOr(e.Branch, "-"), synced, e.URL)
	}
}
