package shared

import (
	"context"
	"fmt"

	"github.com/runoshun/git-pilot/internal/domain"
)

// EnsureBranch switches dir to branch, creating it from HEAD when it does
// not exist locally. Branches are never deleted.
func EnsureBranch(ctx context.Context, git domain.Git, dir, branch string) error {
	exists, err := git.BranchExists(dir, branch)
	if err != nil {
		return fmt.Errorf("check branch %s: %w", branch, err)
	}
	if exists {
		if err := git.Checkout(ctx, dir, branch); err != nil {
			return fmt.Errorf("checkout %s: %w", branch, err)
		}
		return nil
	}
	if err := git.CreateBranch(ctx, dir, branch); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return nil
}
