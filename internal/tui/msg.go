package tui

import (
	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase"
)

// Msg is the sealed interface for all board messages.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// MsgTasksLoaded is sent when tasks are loaded from the repository.
type MsgTasksLoaded struct {
	Tasks []*domain.Task
}

func (MsgTasksLoaded) sealed() {}

// MsgTasksChanged is sent when a task record changes on disk.
type MsgTasksChanged struct{}

func (MsgTasksChanged) sealed() {}

// MsgTaskApplied is sent when a change has been applied.
type MsgTaskApplied struct {
	Output *usecase.ApplyChangeOutput
}

func (MsgTaskApplied) sealed() {}

// MsgTestsRun is sent when a test run has finished, passing or failing.
type MsgTestsRun struct {
	Output *usecase.RunTestsOutput
}

func (MsgTestsRun) sealed() {}

// MsgTaskClosed is sent when a task is closed.
type MsgTaskClosed struct {
	TaskID string
}

func (MsgTaskClosed) sealed() {}

// MsgError is sent when an error occurs.
type MsgError struct {
	Err error
}

func (MsgError) sealed() {}
