package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/infra/builtin"
)

// newAgentsCommand creates the agents command.
func newAgentsCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List built-in agent presets",
		Long: `List the built-in agent presets and show which command is configured.

Select a preset in config.toml:

  [agent]
  preset = "codex"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			active := ""
			if c != nil && c.AppConfig != nil {
				active = c.AppConfig.Agent.Preset
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION\tSTATUS")
			for _, name := range builtin.Names() {
				status := ""
				if name == active {
					status = "active"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, builtin.Describe(name), status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if c != nil && c.AppConfig != nil && active == "" {
				agent := c.AppConfig.Agent
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nConfigured command: %s\n",
					strings.TrimSpace(agent.Command+" "+strings.Join(agent.Args, " ")))
			}
			return nil
		},
	}
}
