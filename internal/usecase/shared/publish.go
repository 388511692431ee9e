package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/git-pilot/internal/domain"
)

// Git reports an empty commit with one of these messages depending on
// whether untracked files are involved.
var nothingToCommit = []string{"nothing to commit", "no changes added to commit"}

// PublishResult describes what Publish recorded.
type PublishResult struct {
	Commit    string // HEAD after the commit; empty when nothing was committed
	Committed bool
}

// Publish commits every change in dir on branch and pushes the branch.
// An empty commit is not an error. Push failures are wrapped in
// ErrPublish and never retried.
func Publish(ctx context.Context, git domain.Git, dir, branch, message string) (*PublishResult, error) {
	if err := git.Checkout(ctx, dir, branch); err != nil {
		return nil, fmt.Errorf("checkout %s: %w", branch, err)
	}
	if err := git.AddAll(ctx, dir); err != nil {
		return nil, fmt.Errorf("stage changes: %w", err)
	}

	result := &PublishResult{}
	if err := git.Commit(ctx, dir, message); err != nil {
		var cmdErr *domain.CommandError
		if !errors.As(err, &cmdErr) || !cmdErr.OutputContains(nothingToCommit...) {
			return nil, fmt.Errorf("commit: %w", err)
		}
	} else {
		hash, err := git.HeadCommit(dir)
		if err != nil {
			return nil, fmt.Errorf("read commit: %w", err)
		}
		result.Commit = hash
		result.Committed = true
	}

	if err := git.Push(ctx, dir, DefaultRemote, branch); err != nil {
		return result, fmt.Errorf("%w: push %s: %w", domain.ErrPublish, branch, err)
	}
	return result, nil
}
