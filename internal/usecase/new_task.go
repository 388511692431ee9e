// Package usecase contains application use cases.
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/git-pilot/internal/domain"
)

// TaskDefaults holds the values stamped on every new task.
type TaskDefaults struct {
	Repo   domain.RepoConfig // Target repository and baseline branch
	Source string            // Source label ("" = domain.DefaultTaskSource)
}

// NewTaskInput contains the parameters for creating a new task.
// Fields are ordered to minimize memory padding.
type NewTaskInput struct {
	Title              string   // Task title (required)
	Description        string   // Instruction given to the generator (optional, defaults to title)
	Type               string   // Task type (optional, default CODE_CHANGE)
	Priority           string   // low, medium or high (optional, default medium)
	TargetBranch       string   // Baseline branch (optional, empty = configured branch)
	Source             string   // Source label (optional)
	AffectedFiles      []string // Files the change touches, in apply order
	AcceptanceCriteria []string // Checks that prove the change works (optional)
}

// NewTaskOutput contains the result of creating a new task.
type NewTaskOutput struct {
	Task *domain.Task // The created task
}

// NewTask is the use case for creating a task from explicit fields.
type NewTask struct {
	tasks    domain.TaskRepository
	ids      domain.IDGenerator
	clock    domain.Clock
	logger   domain.Logger
	defaults TaskDefaults
}

// NewNewTask creates a new NewTask use case.
func NewNewTask(
	tasks domain.TaskRepository,
	ids domain.IDGenerator,
	clock domain.Clock,
	logger domain.Logger,
	defaults TaskDefaults,
) *NewTask {
	return &NewTask{
		tasks:    tasks,
		ids:      ids,
		clock:    clock,
		logger:   logger,
		defaults: defaults,
	}
}

// Execute creates a new task with the given input.
func (uc *NewTask) Execute(_ context.Context, in NewTaskInput) (*NewTaskOutput, error) {
	task, err := buildTask(uc.ids, uc.clock, uc.defaults, in)
	if err != nil {
		return nil, err
	}

	if err := uc.tasks.Create(task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info(task.ID, "task", fmt.Sprintf("created: %q", task.Title))
	}

	return &NewTaskOutput{Task: task}, nil
}

// buildTask validates the input and returns an OPEN task.
func buildTask(ids domain.IDGenerator, clock domain.Clock, defaults TaskDefaults, in NewTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	priority, err := domain.NormalizePriority(in.Priority)
	if err != nil {
		return nil, err
	}

	source := firstNonEmpty(in.Source, defaults.Source, domain.DefaultTaskSource)
	task := domain.NewTask(ids.NewID(), clock.Now(), source)
	task.Title = title
	task.Description = firstNonEmpty(strings.TrimSpace(in.Description), title)
	task.Type = firstNonEmpty(strings.TrimSpace(in.Type), domain.DefaultTaskType)
	task.Priority = priority
	task.TargetRepo = defaults.Repo.URL
	task.TargetBranch = firstNonEmpty(strings.TrimSpace(in.TargetBranch), defaults.Repo.Branch, domain.DefaultBaselineBranch)
	task.AffectedFiles = cleanFileList(in.AffectedFiles)
	if len(in.AcceptanceCriteria) > 0 {
		task.AcceptanceCriteria = append([]string(nil), in.AcceptanceCriteria...)
	}
	return task, nil
}

// cleanFileList trims entries and drops blanks and duplicates, keeping order.
func cleanFileList(files []string) []string {
	out := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
