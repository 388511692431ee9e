package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize git-pilot in the current directory",
		Long: `Initialize git-pilot in the current directory.

This command creates the .pilot/ directory with:
- config.toml: commented configuration template
- tasks/: one JSON record per task
- logs/: operational logs

Running it again recreates missing directories and keeps the existing
configuration. Set PILOT_DATA_DIR to keep the data elsewhere.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.InitRepoUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.InitRepoInput{
				DataDir:  c.Config.DataDir,
				TasksDir: c.AppConfig.Tasks.Dir,
				RepoRoot: c.Config.Root,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.AlreadyInitialized {
				_, _ = fmt.Fprintf(w, "git-pilot already initialized in %s\n", out.DataDir)
			} else {
				_, _ = fmt.Fprintf(w, "Initialized git-pilot in %s\n", out.DataDir)
				_, _ = fmt.Fprintf(w, "Edit %s to set the target repository.\n", out.ConfigPath)
			}
			if out.GitignoreNeedsAdd {
				_, _ = fmt.Fprintf(w, "Hint: add %s/ to .gitignore\n", domain.DataDirName)
			}
			return nil
		},
	}
}
