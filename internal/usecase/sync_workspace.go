package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase/shared"
)

// SyncWorkspaceInput contains the parameters for synchronizing the workspace.
type SyncWorkspaceInput struct{}

// SyncWorkspaceOutput contains the result of a synchronization.
type SyncWorkspaceOutput struct {
	Dir        string                  // Workspace directory
	Branch     string                  // Baseline branch now checked out
	Commit     string                  // HEAD after the pull
	Workspaces []domain.WorkspaceEntry // Known workspaces, including this one
}

// SyncWorkspace is the use case for bringing the configured workspace to
// the tip of its baseline branch.
type SyncWorkspace struct {
	git        domain.Git
	opener     *shared.WorkspaceOpener
	workspaces domain.WorkspaceManager
	repo       domain.RepoConfig
}

// NewSyncWorkspace creates a new SyncWorkspace use case.
func NewSyncWorkspace(
	git domain.Git,
	opener *shared.WorkspaceOpener,
	workspaces domain.WorkspaceManager,
	repo domain.RepoConfig,
) *SyncWorkspace {
	return &SyncWorkspace{
		git:        git,
		opener:     opener,
		workspaces: workspaces,
		repo:       repo,
	}
}

// Execute clones or refreshes the workspace.
func (uc *SyncWorkspace) Execute(ctx context.Context, _ SyncWorkspaceInput) (*SyncWorkspaceOutput, error) {
	dir, release, err := uc.opener.Open(ctx, uc.repo)
	if err != nil {
		return nil, err
	}
	defer release()

	commit, err := uc.git.HeadCommit(dir)
	if err != nil {
		return nil, fmt.Errorf("read head: %w", err)
	}
	entries, err := uc.workspaces.List()
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	return &SyncWorkspaceOutput{
		Dir:        dir,
		Branch:     uc.repo.Branch,
		Commit:     commit,
		Workspaces: entries,
	}, nil
}
