package shared

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/runoshun/git-pilot/internal/domain"
)

// WorkspaceOpener leases the workspace of the configured repository and
// synchronizes it.
type WorkspaceOpener struct {
	workspaces domain.WorkspaceManager
	sync       *Synchronizer
	clock      domain.Clock
	logger     domain.Logger
}

// NewWorkspaceOpener creates a new WorkspaceOpener. logger may be nil.
func NewWorkspaceOpener(
	workspaces domain.WorkspaceManager,
	sync *Synchronizer,
	clock domain.Clock,
	logger domain.Logger,
) *WorkspaceOpener {
	return &WorkspaceOpener{
		workspaces: workspaces,
		sync:       sync,
		clock:      clock,
		logger:     logger,
	}
}

// Open acquires the workspace lease and synchronizes the clone with the
// baseline branch. On success the caller owns the lease and must call
// release; on failure the lease is already released.
func (o *WorkspaceOpener) Open(ctx context.Context, repo domain.RepoConfig) (string, func(), error) {
	if err := repo.Validate(); err != nil {
		return "", nil, err
	}
	release, err := o.workspaces.Acquire(ctx, filepath.Clean(repo.Path))
	if err != nil {
		return "", nil, fmt.Errorf("acquire workspace: %w", err)
	}

	dir, err := o.sync.Ensure(ctx, repo)
	if err != nil {
		release()
		return "", nil, fmt.Errorf("synchronize workspace: %w", err)
	}

	if err := o.workspaces.Touch(repo, o.clock.Now()); err != nil && o.logger != nil {
		o.logger.Warn("", "sync", fmt.Sprintf("record workspace %s: %v", dir, err))
	}
	return dir, release, nil
}
