package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase"
)

// shortIDLength is the number of id characters shown in task lists.
const shortIDLength = 8

// newNewCommand creates the new command for creating tasks.
func newNewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title       string
		Description string
		Type        string
		Priority    string
		Branch      string
		Source      string
		Message     string
		From        string
		Files       []string
		Acceptance  []string
		DryRun      bool
	}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new task",
		Long: `Create a new task for git-pilot to manage.

The task is created with status OPEN. Nothing touches the workspace
until the task is applied with 'pilot apply <id>'.

Examples:
  # Create a task with explicit files
  pilot new --title "Add createdAt" --file src/main/java/app/JournalEntry.java

  # Let the agent propose title and files from a request
  pilot new --message "Add a createdAt timestamp to journal entries"

  # Create tasks from a file (multiple tasks supported)
  pilot new --from tasks.md

  # Preview tasks from a file without creating
  pilot new --from tasks.md --dry-run

File format for --from:
  ---
  title: Add created date
  files: [src/main/java/app/JournalEntry.java]
  priority: high
  acceptance:
    - entries expose createdAt
  ---
  Description here.

  ---
  title: Document createdAt
  branch: develop
  files: [README.md]
  ---`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case opts.From != "" && opts.Message != "":
				return errors.New("--from and --message are mutually exclusive")
			case opts.From != "":
				return createTasksFromFile(cmd, c, opts.From, opts.Source, opts.DryRun)
			case opts.DryRun:
				return errors.New("--dry-run requires --from")
			case opts.Message != "":
				return createTaskFromText(cmd, c, opts.Message, opts.Source)
			case opts.Title == "":
				return errors.New(`required flag(s) "title" not set`)
			}

			uc := c.NewTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.NewTaskInput{
				Title:              opts.Title,
				Description:        opts.Description,
				Type:               opts.Type,
				Priority:           opts.Priority,
				TargetBranch:       opts.Branch,
				Source:             opts.Source,
				AffectedFiles:      opts.Files,
				AcceptanceCriteria: opts.Acceptance,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", out.Task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "Task title (required unless --message or --from is used)")
	cmd.Flags().StringVar(&opts.Description, "body", "", "Change request given to the agent (default: title)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Task type (default: CODE_CHANGE)")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "Priority: low, medium or high (default: medium)")
	cmd.Flags().StringVar(&opts.Branch, "branch", "", "Baseline branch (default: configured branch)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "Source label recorded on the task")
	cmd.Flags().StringArrayVar(&opts.Files, "file", nil, "Affected file, in apply order (can specify multiple)")
	cmd.Flags().StringArrayVar(&opts.Acceptance, "accept", nil, "Acceptance criterion (can specify multiple)")
	cmd.Flags().StringVar(&opts.Message, "message", "", "Create the task from a free-text request")
	cmd.Flags().StringVar(&opts.From, "from", "", "Create tasks from a Markdown file")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Preview tasks without creating (requires --from)")

	return cmd
}

// createTaskFromText asks the spec generator for a task.
func createTaskFromText(cmd *cobra.Command, c *app.Container, message, source string) error {
	uc := c.NewTaskFromTextUseCase()
	out, err := uc.Execute(cmd.Context(), usecase.NewTaskFromTextInput{
		Message: message,
		Source:  source,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Created task %s\n", out.Task.ID)
	_, _ = fmt.Fprintf(w, "  Title: %s\n", out.Task.Title)
	_, _ = fmt.Fprintf(w, "  Files: %s\n", strings.Join(out.Task.AffectedFiles, ", "))
	if out.Guessed {
		_, _ = fmt.Fprintf(w, "  Note: none of the proposed files is tracked (%s); the file was guessed\n",
			strings.Join(out.Requested, ", "))
	}
	return nil
}

// createTasksFromFile creates tasks from a Markdown file.
func createTasksFromFile(cmd *cobra.Command, c *app.Container, filePath, source string, dryRun bool) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if source == "" {
		source = filePath
	}

	uc := c.CreateTasksFromFileUseCase()
	out, err := uc.Execute(cmd.Context(), usecase.CreateTasksFromFileInput{
		Content: string(content),
		Source:  source,
		DryRun:  dryRun,
	})
	if out != nil {
		printCreatedTasks(cmd.OutOrStdout(), out.Tasks, dryRun)
	}
	return err
}

// printCreatedTasks prints the tasks created from a file.
func printCreatedTasks(w io.Writer, tasks []*domain.Task, dryRun bool) {
	if dryRun {
		_, _ = fmt.Fprintln(w, "Dry run - tasks that would be created:")
		_, _ = fmt.Fprintln(w, "")
	}
	for i, task := range tasks {
		if dryRun {
			_, _ = fmt.Fprintf(w, "Task %d:\n", i+1)
		} else {
			_, _ = fmt.Fprintf(w, "Created task %s:\n", task.ID)
		}
		_, _ = fmt.Fprintf(w, "  Title: %s\n", task.Title)
		_, _ = fmt.Fprintf(w, "  Branch: %s\n", task.TargetBranch)
		if len(task.AffectedFiles) > 0 {
			_, _ = fmt.Fprintf(w, "  Files: [%s]\n", strings.Join(task.AffectedFiles, ", "))
		}
		if task.Description != task.Title {
			lines := strings.Split(task.Description, "\n")
			preview := lines[0]
			if len(preview) > 50 {
				preview = preview[:50] + "..."
			}
			if len(lines) > 1 {
				preview += " ..."
			}
			_, _ = fmt.Fprintf(w, "  Description: %s\n", preview)
		}
	}
}

// newListCommand creates the list command.
func newListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Status string
		All    bool
	}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks, newest first.

Closed tasks are hidden unless --all is given or --status CLOSED is
requested explicitly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.ListTasksUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ListTasksInput{
				Status:        domain.Status(strings.ToUpper(opts.Status)),
				IncludeClosed: opts.All,
			})
			if err != nil {
				return err
			}

			printTaskList(cmd.OutOrStdout(), out.Tasks)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Status, "status", "s", "", "Only show tasks in this status")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Include closed tasks")

	return cmd
}

// printTaskList prints tasks in a table.
func printTaskList(w io.Writer, tasks []*domain.Task) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tBRANCH\tTESTS\tTITLE")

	for _, task := range tasks {
		branchStr := "-"
		if task.BranchName != "" {
			branchStr = task.BranchName
		}
		testsStr := "-"
		if task.LastTestStatus != "" {
			testsStr = task.LastTestStatus
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(task.ID),
			task.Status,
			task.Priority,
			branchStr,
			testsStr,
			task.Title,
		)
	}
}

// shortID abbreviates a task id for tables.
func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

// newShowCommand creates the show command.
func newShowCommand(c *app.Container) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Long: `Show the details of a task: fields, branch, last test outcome and timeline.

The id may be abbreviated to any unique prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveTaskID(c.Tasks, args[0])
			if err != nil {
				return err
			}

			uc := c.ShowTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ShowTaskInput{TaskID: id})
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Task)
			}
			printTaskDetails(cmd.OutOrStdout(), out.Task)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the stored task record as JSON")

	return cmd
}

// resolveTaskID expands a unique id prefix to the full task id.
// An exact match always wins; "#" prefixes are tolerated.
func resolveTaskID(tasks domain.TaskRepository, arg string) (string, error) {
	arg = strings.TrimPrefix(strings.TrimSpace(arg), "#")
	if arg == "" {
		return "", fmt.Errorf("%w: empty id", domain.ErrTaskNotFound)
	}

	task, err := tasks.Get(arg)
	if err != nil {
		return "", err
	}
	if task != nil {
		return task.ID, nil
	}

	all, err := tasks.List()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, t := range all {
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", domain.ErrTaskNotFound, arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous: %s", arg, strings.Join(matches, ", "))
	}
}

// newCloseCommand creates the close command.
func newCloseCommand(c *app.Container) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close a task",
		Long: `Close a task. A closed task accepts no further apply or test runs;
its branch is kept in the remote.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveTaskID(c.Tasks, args[0])
			if err != nil {
				return err
			}

			uc := c.CloseTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.CloseTaskInput{TaskID: id, Reason: reason})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Closed task %s: %s\n", shortID(out.Task.ID), out.Task.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded on the timeline")

	return cmd
}

// printTaskDetails prints a task in a human-readable format.
func printTaskDetails(w io.Writer, task *domain.Task) {
	_, _ = fmt.Fprintf(w, "# Task %s: %s\n\n", task.ID, task.Title)

	if task.Description != "" && task.Description != task.Title {
		_, _ = fmt.Fprintf(w, "%s\n\n", task.Description)
	}

	_, _ = fmt.Fprintf(w, "Status: %s\n", task.Status)
	_, _ = fmt.Fprintf(w, "Type: %s\n", task.Type)
	_, _ = fmt.Fprintf(w, "Priority: %s\n", task.Priority)
	_, _ = fmt.Fprintf(w, "Target: %s (%s)\n", valueOr(task.TargetRepo, "configured repository"), task.TargetBranch)
	_, _ = fmt.Fprintf(w, "Branch: %s\n", valueOr(task.BranchName, "none"))
	if task.LastCommit != "" {
		_, _ = fmt.Fprintf(w, "Last commit: %s\n", task.LastCommit)
	}
	if task.LastTestStatus != "" {
		_, _ = fmt.Fprintf(w, "Last test: %s\n", task.LastTestStatus)
	}
	_, _ = fmt.Fprintf(w, "Source: %s\n", task.Source)
	_, _ = fmt.Fprintf(w, "Created: %s\n", task.CreatedAt.Format(time.RFC3339))

	if len(task.AffectedFiles) > 0 {
		_, _ = fmt.Fprintln(w, "\nAffected files:")
		for _, f := range task.AffectedFiles {
			_, _ = fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	if len(task.AcceptanceCriteria) > 0 {
		_, _ = fmt.Fprintln(w, "\nAcceptance criteria:")
		for _, a := range task.AcceptanceCriteria {
			_, _ = fmt.Fprintf(w, "  - %s\n", a)
		}
	}

	if len(task.Timeline) > 0 {
		_, _ = fmt.Fprintln(w, "\nTimeline:")
		for _, ev := range task.Timeline {
			_, _ = fmt.Fprintf(w, "  [%s] %s%s\n", ev.At.Format(time.RFC3339), ev.Label, formatMeta(ev.Meta))
		}
	}
}

// formatMeta renders the interesting event metadata on one line.
func formatMeta(meta map[string]any) string {
	var parts []string
	for _, key := range []string{"branch", "commit", "exit_code", "error", "reason"} {
		if v, ok := meta[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", key, v))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
