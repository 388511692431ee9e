// Package shared provides shared utilities for use cases.
package shared

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/runoshun/git-pilot/internal/domain"
)

// DefaultRemote is the remote every workspace is cloned from.
const DefaultRemote = "origin"

// Synchronizer brings the local workspace of a repository to the tip of its
// baseline branch, cloning it on first use.
type Synchronizer struct {
	git    domain.Git
	fs     afero.Fs
	logger domain.Logger
}

// NewSynchronizer creates a new Synchronizer. logger may be nil.
func NewSynchronizer(git domain.Git, fs afero.Fs, logger domain.Logger) *Synchronizer {
	return &Synchronizer{git: git, fs: fs, logger: logger}
}

// Ensure makes repo.Path a clone of repo.URL with repo.Branch checked out
// and up to date, and returns the cleaned workspace path.
//
// A baseline checkout blocked by local state is retried once after
// discarding all tracked and untracked changes. If it still fails the
// branch is assumed missing and ErrConfiguration is returned.
func (s *Synchronizer) Ensure(ctx context.Context, repo domain.RepoConfig) (string, error) {
	if err := repo.Validate(); err != nil {
		return "", err
	}
	dir := filepath.Clean(repo.Path)

	if !s.git.IsRepository(dir) {
		if err := s.fs.MkdirAll(filepath.Dir(dir), 0o750); err != nil {
			return "", fmt.Errorf("create workspace parent: %w", err)
		}
		s.log(fmt.Sprintf("cloning %s into %s", repo.URL, dir))
		if err := s.git.Clone(ctx, repo.URL, dir); err != nil {
			return "", fmt.Errorf("clone: %w", err)
		}
	} else if err := s.git.Fetch(ctx, dir, DefaultRemote); err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}

	if err := s.checkoutBaseline(ctx, dir, repo.Branch); err != nil {
		return "", err
	}

	if err := s.git.Pull(ctx, dir, DefaultRemote, repo.Branch); err != nil {
		return "", fmt.Errorf("pull %s: %w", repo.Branch, err)
	}
	s.log(fmt.Sprintf("workspace %s synchronized with %s", dir, repo.Branch))
	return dir, nil
}

func (s *Synchronizer) checkoutBaseline(ctx context.Context, dir, branch string) error {
	err := s.git.Checkout(ctx, dir, branch)
	if err == nil {
		return nil
	}
	s.warn(fmt.Sprintf("checkout %s failed, resetting workspace: %v", branch, err))

	if err := s.git.ResetHard(ctx, dir); err != nil {
		return fmt.Errorf("%w: reset workspace: %w", domain.ErrSyncConflict, err)
	}
	if err := s.git.Clean(ctx, dir); err != nil {
		return fmt.Errorf("%w: clean workspace: %w", domain.ErrSyncConflict, err)
	}
	if err := s.git.Checkout(ctx, dir, branch); err != nil {
		return fmt.Errorf("%w: baseline branch %q cannot be checked out: %w", domain.ErrConfiguration, branch, err)
	}
	return nil
}

func (s *Synchronizer) log(msg string) {
	if s.logger != nil {
		s.logger.Info("", "sync", msg)
	}
}

func (s *Synchronizer) warn(msg string) {
	if s.logger != nil {
		s.logger.Warn("", "sync", msg)
	}
}
