package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase/shared"
)

// ApplyChangeInput contains the parameters for applying a task's change.
type ApplyChangeInput struct {
	TaskID   string               // Task ID (required)
	Policy   domain.ResolvePolicy // Resolution policy ("" = configured default)
	Language string               // Language hint for every file ("" = by extension)
}

// ApplyChangeOutput contains the result of applying a change.
// Fields are ordered to minimize memory padding.
type ApplyChangeOutput struct {
	Task      *domain.Task // Task after the transition
	Branch    string       // Feature branch the change was committed to
	Commit    string       // New commit hash ("" when there was nothing to commit)
	Files     []string     // Repository-relative paths written
	Committed bool         // False when the generated content matched the tree
}

// ApplyChange is the use case for generating, committing and pushing the
// change a task describes.
type ApplyChange struct {
	tasks    domain.TaskRepository
	git      domain.Git
	opener   *shared.WorkspaceOpener
	resolver *shared.FileResolver
	applier  *shared.ChangeApplier
	clock    domain.Clock
	logger   domain.Logger
	repo     domain.RepoConfig
	policy   domain.ResolvePolicy
}

// NewApplyChange creates a new ApplyChange use case.
// policy is used when the caller does not choose one.
func NewApplyChange(
	tasks domain.TaskRepository,
	git domain.Git,
	opener *shared.WorkspaceOpener,
	resolver *shared.FileResolver,
	applier *shared.ChangeApplier,
	clock domain.Clock,
	logger domain.Logger,
	repo domain.RepoConfig,
	policy domain.ResolvePolicy,
) *ApplyChange {
	return &ApplyChange{
		tasks:    tasks,
		git:      git,
		opener:   opener,
		resolver: resolver,
		applier:  applier,
		clock:    clock,
		logger:   logger,
		repo:     repo,
		policy:   policy,
	}
}

// Execute runs the apply flow under the workspace lease:
// sync baseline, enter the task branch, resolve every file, rewrite them,
// commit and push, then move the task to CODE_APPLIED.
//
// All files are resolved before the first write, so a resolution error
// leaves the working tree untouched. Any failure after the task was
// accepted is recorded on the task (event plus run record) before it is
// returned; the status does not change. A failure on the feature branch
// also discards the uncommitted edits before the lease is released, so
// the next task never publishes them.
func (uc *ApplyChange) Execute(ctx context.Context, in ApplyChangeInput) (*ApplyChangeOutput, error) {
	task, err := shared.GetTask(uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}
	if err := task.CheckApplicable(); err != nil {
		return nil, err
	}
	policy, err := domain.ParseResolvePolicy(string(in.Policy), uc.policy)
	if err != nil {
		return nil, err
	}

	branch := task.BranchName
	if branch == "" {
		branch = domain.BranchName(task.ID)
	}
	uc.log(task.ID, fmt.Sprintf("applying on %s (policy %s)", branch, policy))

	dir, release, err := uc.opener.Open(ctx, taskRepo(uc.repo, task))
	if err != nil {
		return nil, uc.fail(task.ID, branch, nil, err)
	}
	defer release()

	if err := shared.EnsureBranch(ctx, uc.git, dir, branch); err != nil {
		return nil, uc.fail(task.ID, branch, nil, err)
	}

	published := false
	defer func() {
		if !published {
			uc.restore(ctx, task.ID, dir)
		}
	}()

	files, err := uc.resolver.ResolveAll(dir, task.AffectedFiles, policy)
	if err != nil {
		return nil, uc.fail(task.ID, branch, nil, err)
	}

	applied, err := uc.applier.Apply(ctx, shared.ApplyInput{
		TaskID:      task.ID,
		Instruction: task.Description,
		Language:    in.Language,
		Files:       files,
	})
	if err != nil {
		return nil, uc.fail(task.ID, branch, applied.Modified, err)
	}

	result, err := shared.Publish(ctx, uc.git, dir, branch, commitMessage(task))
	if err != nil {
		return nil, uc.fail(task.ID, branch, applied.Modified, err)
	}
	published = true

	updated, err := uc.tasks.Update(task.ID, func(t *domain.Task) error {
		return t.ApplySucceeded(branch, applied.Modified, result.Commit, uc.clock.Now())
	})
	if err != nil {
		err = fmt.Errorf("record apply of %s pushed to %s: %w", valueOr(shortHash(result.Commit), "no commit"), branch, err)
		return nil, uc.fail(task.ID, branch, applied.Modified, err)
	}

	if result.Committed {
		uc.log(task.ID, fmt.Sprintf("committed %s on %s", shortHash(result.Commit), branch))
	} else {
		uc.log(task.ID, fmt.Sprintf("nothing to commit on %s", branch))
	}

	return &ApplyChangeOutput{
		Task:      updated,
		Branch:    branch,
		Commit:    result.Commit,
		Files:     applied.Modified,
		Committed: result.Committed,
	}, nil
}

// fail records the failed attempt on the task and returns cause.
func (uc *ApplyChange) fail(taskID, branch string, files []string, cause error) error {
	if files == nil {
		files = []string{}
	}
	_, err := uc.tasks.Update(taskID, func(t *domain.Task) error {
		t.ApplyFailed(branch, files, cause, uc.clock.Now())
		return nil
	})
	if uc.logger != nil {
		uc.logger.Error(taskID, "apply", cause.Error())
		if err != nil {
			uc.logger.Error(taskID, "apply", fmt.Sprintf("record failure: %v", err))
		}
	}
	return cause
}

// restore discards tracked and untracked changes in the workspace.
// It runs after the request context may have been canceled.
func (uc *ApplyChange) restore(ctx context.Context, taskID, dir string) {
	ctx = context.WithoutCancel(ctx)
	if err := uc.git.ResetHard(ctx, dir); err != nil {
		uc.logError(taskID, fmt.Sprintf("restore workspace: %v", err))
		return
	}
	if err := uc.git.Clean(ctx, dir); err != nil {
		uc.logError(taskID, fmt.Sprintf("restore workspace: %v", err))
	}
}

func (uc *ApplyChange) logError(taskID, msg string) {
	if uc.logger != nil {
		uc.logger.Error(taskID, "apply", msg)
	}
}

func (uc *ApplyChange) log(taskID, msg string) {
	if uc.logger != nil {
		uc.logger.Info(taskID, "apply", msg)
	}
}

// taskRepo returns the repository a task targets. The workspace path is
// always the configured one.
func taskRepo(repo domain.RepoConfig, task *domain.Task) domain.RepoConfig {
	if task.TargetRepo != "" {
		repo.URL = task.TargetRepo
	}
	if task.TargetBranch != "" {
		repo.Branch = task.TargetBranch
	}
	return repo
}

func commitMessage(task *domain.Task) string {
	return fmt.Sprintf("%s\n\nTask: %s", task.Title, task.ID)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
