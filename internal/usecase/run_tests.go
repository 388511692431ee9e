package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase/shared"
)

// RunTestsInput contains the parameters for running a task's tests.
type RunTestsInput struct {
	TaskID string // Task ID (required)
}

// RunTestsOutput contains the result of a test run.
type RunTestsOutput struct {
	Task   *domain.Task       // Task after the transition
	Result *domain.TestResult // Exit code and output tails
}

// RunTests is the use case for running the repository's tests on a task branch.
type RunTests struct {
	tasks  domain.TaskRepository
	git    domain.Git
	opener *shared.WorkspaceOpener
	runner domain.TestRunner
	clock  domain.Clock
	logger domain.Logger
	repo   domain.RepoConfig
}

// NewRunTests creates a new RunTests use case.
func NewRunTests(
	tasks domain.TaskRepository,
	git domain.Git,
	opener *shared.WorkspaceOpener,
	runner domain.TestRunner,
	clock domain.Clock,
	logger domain.Logger,
	repo domain.RepoConfig,
) *RunTests {
	return &RunTests{
		tasks:  tasks,
		git:    git,
		opener: opener,
		runner: runner,
		clock:  clock,
		logger: logger,
		repo:   repo,
	}
}

// Execute checks the task branch out, refreshes it from the remote when
// possible and runs the test command. A non-zero exit moves the task to
// TESTS_FAILED and is not an error. Failures to obtain an exit code are
// recorded as an errored run and returned.
func (uc *RunTests) Execute(ctx context.Context, in RunTestsInput) (*RunTestsOutput, error) {
	task, err := shared.GetTask(uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}
	if err := task.CheckTestable(); err != nil {
		return nil, err
	}
	branch := task.BranchName

	dir, release, err := uc.opener.Open(ctx, taskRepo(uc.repo, task))
	if err != nil {
		return nil, uc.fail(task.ID, err)
	}
	defer release()

	if err := uc.git.Checkout(ctx, dir, branch); err != nil {
		return nil, uc.fail(task.ID, fmt.Errorf("checkout %s: %w", branch, err))
	}
	// The branch may not exist remotely yet
	if err := uc.git.Pull(ctx, dir, shared.DefaultRemote, branch); err != nil && uc.logger != nil {
		uc.logger.Warn(task.ID, "test", fmt.Sprintf("pull %s skipped: %v", branch, err))
	}

	uc.log(task.ID, fmt.Sprintf("running tests on %s", branch))
	result, err := uc.runner.Run(ctx, dir)
	if err != nil {
		return nil, uc.fail(task.ID, err)
	}

	updated, err := uc.tasks.Update(task.ID, func(t *domain.Task) error {
		return t.TestsFinished(result.ExitCode, uc.clock.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("record test run: %w", err)
	}
	uc.log(task.ID, fmt.Sprintf("%s exited %d", result.Command, result.ExitCode))

	return &RunTestsOutput{Task: updated, Result: result}, nil
}

// fail records the errored run on the task and returns cause.
func (uc *RunTests) fail(taskID string, cause error) error {
	_, err := uc.tasks.Update(taskID, func(t *domain.Task) error {
		t.TestsErrored(cause, uc.clock.Now())
		return nil
	})
	if uc.logger != nil {
		uc.logger.Error(taskID, "test", cause.Error())
		if err != nil {
			uc.logger.Error(taskID, "test", fmt.Sprintf("record failure: %v", err))
		}
	}
	return cause
}

func (uc *RunTests) log(taskID, msg string) {
	if uc.logger != nil {
		uc.logger.Info(taskID, "test", msg)
	}
}
