// Package cli provides the command-line interface for git-pilot.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/tui"
)

// Command group IDs.
const (
	groupSetup     = "setup"
	groupTask      = "task"
	groupWorkspace = "workspace"
)

// launchTUIFunc is a function variable for launching the task board, allowing it to be mocked in tests.
var launchTUIFunc = launchTUI

// NewRootCommand creates the root command for git-pilot.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "pilot",
		Short: "Turn change requests into tested commits",
		Long: `git-pilot turns a natural-language change request into a committed,
testable change on a feature branch of one target repository.

Each task owns a branch (cpai-<id>). Applying a task synchronizes the
shared workspace clone, asks the configured agent for the new content of
every affected file, commits and pushes. Running tests checks the branch
out and records the outcome on the task.

Run without arguments to open the task board.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return launchTUIFunc(c)
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupTask, Title: "Task Management:"},
		&cobra.Group{ID: groupWorkspace, Title: "Workspace Commands:"},
	)

	// Setup commands
	initCmd := newInitCommand(c)
	initCmd.GroupID = groupSetup

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	agentsCmd := newAgentsCommand(c)
	agentsCmd.GroupID = groupSetup

	// Task management commands
	newCmd := newNewCommand(c)
	newCmd.GroupID = groupTask

	listCmd := newListCommand(c)
	listCmd.GroupID = groupTask

	showCmd := newShowCommand(c)
	showCmd.GroupID = groupTask

	closeCmd := newCloseCommand(c)
	closeCmd.GroupID = groupTask

	logsCmd := newLogsCommand(c)
	logsCmd.GroupID = groupTask

	boardCmd := newBoardCommand(c)
	boardCmd.GroupID = groupTask

	// Workspace commands
	applyCmd := newApplyCommand(c)
	applyCmd.GroupID = groupWorkspace

	testCmd := newTestCommand(c)
	testCmd.GroupID = groupWorkspace

	syncCmd := newSyncCommand(c)
	syncCmd.GroupID = groupWorkspace

	workspacesCmd := newWorkspacesCommand(c)
	workspacesCmd.GroupID = groupWorkspace

	serveCmd := newServeCommand(c)
	serveCmd.GroupID = groupWorkspace

	root.AddCommand(
		initCmd,
		configCmd,
		agentsCmd,
		newCmd,
		listCmd,
		showCmd,
		closeCmd,
		logsCmd,
		boardCmd,
		applyCmd,
		testCmd,
		syncCmd,
		workspacesCmd,
		serveCmd,
	)

	return root
}

// launchTUI runs the task board until the user quits.
func launchTUI(c *app.Container) error {
	if c == nil {
		return fmt.Errorf("task board needs a configured project")
	}
	return tui.Run(c)
}
