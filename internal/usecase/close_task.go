package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-pilot/internal/domain"
)

// CloseTaskInput contains the parameters for closing a task.
type CloseTaskInput struct {
	TaskID string // Task ID to close
	Reason string // Optional reason recorded on the timeline
}

// CloseTaskOutput contains the result of closing a task.
type CloseTaskOutput struct {
	Task *domain.Task // The closed task
}

// CloseTask is the use case for closing a task.
// The feature branch is kept.
type CloseTask struct {
	tasks  domain.TaskRepository
	clock  domain.Clock
	logger domain.Logger
}

// NewCloseTask creates a new CloseTask use case.
func NewCloseTask(tasks domain.TaskRepository, clock domain.Clock, logger domain.Logger) *CloseTask {
	return &CloseTask{
		tasks:  tasks,
		clock:  clock,
		logger: logger,
	}
}

// Execute transitions the task to CLOSED.
func (uc *CloseTask) Execute(_ context.Context, in CloseTaskInput) (*CloseTaskOutput, error) {
	task, err := uc.tasks.Update(in.TaskID, func(t *domain.Task) error {
		return t.Close(in.Reason, uc.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	if uc.logger != nil {
		uc.logger.Info(task.ID, "task", fmt.Sprintf("closed: %q", task.Title))
	}

	return &CloseTaskOutput{Task: task}, nil
}
