package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-pilot/internal/domain"
)

// CreateTasksFromFileInput contains the parameters for creating tasks from a file.
type CreateTasksFromFileInput struct {
	Content string // File content (Markdown with frontmatter)
	Source  string // Source label for every task (optional)
	DryRun  bool   // If true, parse and validate without creating tasks
}

// CreateTasksFromFileOutput contains the result of creating tasks from a file.
type CreateTasksFromFileOutput struct {
	Tasks []*domain.Task // Created tasks (or tasks that would be created in dry-run mode)
}

// CreateTasksFromFile is the use case for creating tasks from a file.
type CreateTasksFromFile struct {
	tasks    domain.TaskRepository
	ids      domain.IDGenerator
	clock    domain.Clock
	logger   domain.Logger
	defaults TaskDefaults
}

// NewCreateTasksFromFile creates a new CreateTasksFromFile use case.
func NewCreateTasksFromFile(
	tasks domain.TaskRepository,
	ids domain.IDGenerator,
	clock domain.Clock,
	logger domain.Logger,
	defaults TaskDefaults,
) *CreateTasksFromFile {
	return &CreateTasksFromFile{
		tasks:    tasks,
		ids:      ids,
		clock:    clock,
		logger:   logger,
		defaults: defaults,
	}
}

// Execute creates tasks from the given file content.
// Every draft is validated before the first task is stored, so a bad
// draft leaves the store unchanged.
func (uc *CreateTasksFromFile) Execute(_ context.Context, in CreateTasksFromFileInput) (*CreateTasksFromFileOutput, error) {
	drafts, err := domain.ParseTaskDrafts(in.Content)
	if err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(drafts))
	for i, d := range drafts {
		task, err := buildTask(uc.ids, uc.clock, uc.defaults, NewTaskInput{
			Title:              d.Title,
			Description:        d.Description,
			Type:               d.Type,
			Priority:           d.Priority,
			TargetBranch:       d.Branch,
			Source:             in.Source,
			AffectedFiles:      d.Files,
			AcceptanceCriteria: d.AcceptanceCriteria,
		})
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		tasks = append(tasks, task)
	}

	if in.DryRun {
		return &CreateTasksFromFileOutput{Tasks: tasks}, nil
	}

	for i, task := range tasks {
		if err := uc.tasks.Create(task); err != nil {
			return &CreateTasksFromFileOutput{Tasks: tasks[:i]}, fmt.Errorf("task %d: save task: %w", i+1, err)
		}
		if uc.logger != nil {
			uc.logger.Info(task.ID, "task", fmt.Sprintf("created from file: %q", task.Title))
		}
	}

	return &CreateTasksFromFileOutput{Tasks: tasks}, nil
}
