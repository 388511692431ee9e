package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-pilot/internal/domain"
)

// ListTasksInput contains the parameters for listing tasks.
type ListTasksInput struct {
	Status        domain.Status // Only tasks in this status ("" = any)
	IncludeClosed bool          // Include CLOSED tasks when no status is given
}

// ListTasksOutput contains the result of listing tasks.
type ListTasksOutput struct {
	Tasks []*domain.Task // Matching tasks, newest first
}

// ListTasks is the use case for listing tasks.
type ListTasks struct {
	tasks domain.TaskRepository
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(tasks domain.TaskRepository) *ListTasks {
	return &ListTasks{tasks: tasks}
}

// Execute lists tasks matching the given input criteria.
func (uc *ListTasks) Execute(_ context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	if in.Status != "" && !in.Status.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidStatus, in.Status)
	}

	tasks, err := uc.tasks.List()
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	result := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		switch {
		case in.Status != "":
			if t.Status != in.Status {
				continue
			}
		case !in.IncludeClosed && t.Status.IsTerminal():
			continue
		}
		result = append(result, t)
	}

	return &ListTasksOutput{Tasks: result}, nil
}
