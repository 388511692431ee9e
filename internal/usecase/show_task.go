package usecase

import (
	"context"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase/shared"
)

// ShowTaskInput contains the parameters for showing a task.
type ShowTaskInput struct {
	TaskID string // Task ID (required)
}

// ShowTaskOutput contains the result of showing a task.
type ShowTaskOutput struct {
	Task *domain.Task // The full record including timeline and run history
}

// ShowTask is the use case for displaying task details.
type ShowTask struct {
	tasks domain.TaskRepository
}

// NewShowTask creates a new ShowTask use case.
func NewShowTask(tasks domain.TaskRepository) *ShowTask {
	return &ShowTask{
		tasks: tasks,
	}
}

// Execute retrieves and returns the task details.
func (uc *ShowTask) Execute(_ context.Context, in ShowTaskInput) (*ShowTaskOutput, error) {
	task, err := shared.GetTask(uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}
	return &ShowTaskOutput{Task: task}, nil
}
