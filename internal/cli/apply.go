package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase"
)

// errTestsFailed makes 'pilot test' exit non-zero after a failing run.
var errTestsFailed = errors.New("tests failed")

// newApplyCommand creates the apply command.
func newApplyCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Policy   string
		Language string
	}

	cmd := &cobra.Command{
		Use:   "apply <id>",
		Short: "Generate, commit and push the change of a task",
		Long: `Apply a task to the target repository.

The shared workspace is synchronized with the baseline branch, the task
branch is created or checked out, every affected file is resolved before
anything is written, and the agent produces the new content of each file.
The result is committed and pushed; the task moves to CODE_APPLIED.

Resolution policies:
  strict  a declared path that does not exist is an error
  create  a declared path that does not exist is created

A failure is recorded on the task timeline and the status is kept.

Examples:
  pilot apply 3f2a9c1e
  pilot apply 3f2a9c1e --policy strict --lang java`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveTaskID(c.Tasks, args[0])
			if err != nil {
				return err
			}

			uc := c.ApplyChangeUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ApplyChangeInput{
				TaskID:   id,
				Policy:   domain.ResolvePolicy(opts.Policy),
				Language: opts.Language,
			})
			if err != nil {
				return err
			}

			printApplyResult(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Policy, "policy", "", "Resolution policy: strict or create (default: [resolve] policy)")
	cmd.Flags().StringVar(&opts.Language, "lang", "", "Language hint passed to the agent")

	return cmd
}

// printApplyResult prints the outcome of an apply run.
func printApplyResult(w io.Writer, out *usecase.ApplyChangeOutput) {
	if out.Committed {
		_, _ = fmt.Fprintf(w, "Committed %s on %s\n", out.Commit, out.Branch)
	} else {
		_, _ = fmt.Fprintf(w, "Nothing to commit on %s (content unchanged)\n", out.Branch)
	}
	for _, f := range out.Files {
		_, _ = fmt.Fprintf(w, "  M %s\n", f)
	}
	_, _ = fmt.Fprintf(w, "Task %s is %s\n", shortID(out.Task.ID), out.Task.Status)
}

// newTestCommand creates the test command.
func newTestCommand(c *app.Container) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "test <id>",
		Short: "Run the repository's tests on a task branch",
		Long: `Run the configured test command on the branch of a task.

The task must have been applied at least once. A non-zero exit is a
normal outcome: the task moves to TESTS_FAILED and this command exits 1.
When the test command cannot be started the task keeps its status and
records last_test_status=error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveTaskID(c.Tasks, args[0])
			if err != nil {
				return err
			}

			uc := c.RunTestsUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.RunTestsInput{TaskID: id})
			if err != nil {
				return err
			}

			printTestResult(cmd.OutOrStdout(), out, verbose)
			if !out.Result.Passed() {
				return fmt.Errorf("%w: exit code %d", errTestsFailed, out.Result.ExitCode)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the output tail even when tests pass")

	return cmd
}

// printTestResult prints the outcome of a test run.
// The output tails are printed for failures or when verbose is set.
func printTestResult(w io.Writer, out *usecase.RunTestsOutput, verbose bool) {
	res := out.Result
	_, _ = fmt.Fprintf(w, "$ %s\n", res.Command)
	if verbose || !res.Passed() {
		if s := strings.TrimRight(res.Stdout, "\n"); s != "" {
			_, _ = fmt.Fprintf(w, "%s\n", s)
		}
		if s := strings.TrimRight(res.Stderr, "\n"); s != "" {
			_, _ = fmt.Fprintf(w, "--- stderr ---\n%s\n", s)
		}
	}
	_, _ = fmt.Fprintf(w, "Exit code %d; task %s is %s\n", res.ExitCode, shortID(out.Task.ID), out.Task.Status)
}
