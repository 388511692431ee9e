// Package git provides git operations.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/runoshun/git-pilot/internal/domain"
)

// DefaultRemote is the remote every workspace is cloned from.
const DefaultRemote = "origin"

// Client provides git operations on any working tree.
// Commands that touch the network or the working tree run the git binary so
// that credentials helpers and hooks behave as they do for a user. Read-only
// inspection opens the repository with go-git.
type Client struct {
	binary string   // git executable
	env    []string // Extra environment for every invocation
}

// NewClient creates a new git client.
func NewClient() *Client {
	return &Client{
		binary: "git",
		env:    []string{"GIT_TERMINAL_PROMPT=0"},
	}
}

// run executes git in dir and returns the combined output.
// Failures are returned as *domain.CommandError carrying the output.
func (c *Client) run(ctx context.Context, dir string, args ...string) (string, error) {
	//nolint:gosec // arguments are passed to git, not to a shell
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), c.env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), &domain.CommandError{
			Args:   append([]string{c.binary}, args...),
			Dir:    dir,
			Output: string(out),
			Err:    err,
		}
	}
	return string(out), nil
}

// IsRepository reports whether dir is the root of a git working tree.
func (c *Client) IsRepository(dir string) bool {
	_, err := git.PlainOpen(dir)
	return err == nil
}

// Clone clones url into dir. The parent directory must exist.
func (c *Client) Clone(ctx context.Context, url, dir string) error {
	_, err := c.run(ctx, filepath.Dir(dir), "clone", url, dir)
	return err
}

// Fetch fetches from the remote.
func (c *Client) Fetch(ctx context.Context, dir, remote string) error {
	_, err := c.run(ctx, dir, "fetch", remote)
	return err
}

// Checkout switches to an existing branch. A branch that only exists on the
// remote is created locally with tracking by git itself.
func (c *Client) Checkout(ctx context.Context, dir, branch string) error {
	_, err := c.run(ctx, dir, "checkout", branch)
	return err
}

// CreateBranch creates branch from HEAD and switches to it.
func (c *Client) CreateBranch(ctx context.Context, dir, branch string) error {
	_, err := c.run(ctx, dir, "checkout", "-b", branch)
	return err
}

// Pull fast-forwards the checked-out branch from remote/branch.
func (c *Client) Pull(ctx context.Context, dir, remote, branch string) error {
	_, err := c.run(ctx, dir, "pull", "--ff-only", remote, branch)
	return err
}

// ResetHard discards tracked modifications.
func (c *Client) ResetHard(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "reset", "--hard")
	return err
}

// Clean removes untracked files and directories.
func (c *Client) Clean(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "clean", "-fd")
	return err
}

// AddAll stages every working-tree change.
func (c *Client) AddAll(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "add", "-A")
	return err
}

// Commit records staged changes.
func (c *Client) Commit(ctx context.Context, dir, message string) error {
	_, err := c.run(ctx, dir, "commit", "-m", message)
	return err
}

// Push pushes branch to the remote and sets upstream tracking.
func (c *Client) Push(ctx context.Context, dir, remote, branch string) error {
	_, err := c.run(ctx, dir, "push", "-u", remote, branch)
	return err
}

// BranchExists checks if a local branch exists.
func (c *Client) BranchExists(dir, branch string) (bool, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return false, fmt.Errorf("open repository %s: %w", dir, err)
	}
	_, err = repo.Reference(plumbing.NewBranchReferenceName(branch), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check branch existence: %w", err)
	}
	return true, nil
}

// CurrentBranch returns the checked-out branch name, or "HEAD" when detached.
func (c *Client) CurrentBranch(dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("open repository %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	if !head.Name().IsBranch() {
		return "HEAD", nil
	}
	return head.Name().Short(), nil
}

// HeadCommit returns the hash HEAD points to.
func (c *Client) HeadCommit(dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("open repository %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// TrackedFiles lists the paths recorded in the index, equivalent to git ls-files.
func (c *Client) TrackedFiles(dir string) ([]string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", dir, err)
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	files := make([]string, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		files = append(files, e.Name)
	}
	return files, nil
}

// Ensure Client implements domain.Git interface.
var _ domain.Git = (*Client)(nil)
