package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/testutil"
)

var testRepo = domain.RepoConfig{
	URL:    "https://example.com/acme/app.git",
	Branch: "main",
	Path:   "/srv/ws/app",
}

func TestSynchronizer_Ensure_Clone(t *testing.T) {
	git := testutil.NewMockGit()
	fs := afero.NewMemMapFs()
	sync := NewSynchronizer(git, fs, nil)

	dir, err := sync.Ensure(context.Background(), testRepo)

	require.NoError(t, err)
	assert.Equal(t, "/srv/ws/app", dir)
	assert.Equal(t, []string{
		"clone https://example.com/acme/app.git",
		"checkout main",
		"pull origin main",
	}, git.Calls)
	exists, _ := afero.DirExists(fs, "/srv/ws")
	assert.True(t, exists, "parent directory should be created")
}

func TestSynchronizer_Ensure_ExistingClone(t *testing.T) {
	git := testutil.NewMockGit()
	git.Repos["/srv/ws/app"] = true
	logger := &testutil.MockLogger{}
	sync := NewSynchronizer(git, afero.NewMemMapFs(), logger)

	_, err := sync.Ensure(context.Background(), testRepo)

	require.NoError(t, err)
	assert.Equal(t, []string{"fetch origin", "checkout main", "pull origin main"}, git.Calls)
	assert.False(t, git.CloneCalled)
	assert.True(t, logger.Contains("INFO", "synchronized with main"))
}

func TestSynchronizer_Ensure_RecoversDirtyCheckout(t *testing.T) {
	git := testutil.NewMockGit()
	git.Repos["/srv/ws/app"] = true
	git.FailNext("Checkout", errors.New("local changes would be overwritten"))
	logger := &testutil.MockLogger{}
	sync := NewSynchronizer(git, afero.NewMemMapFs(), logger)

	_, err := sync.Ensure(context.Background(), testRepo)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"fetch origin",
		"checkout main",
		"reset --hard",
		"clean -fd",
		"checkout main",
		"pull origin main",
	}, git.Calls)
	assert.True(t, logger.Contains("WARN", "resetting workspace"))
}

func TestSynchronizer_Ensure_MissingBaseline(t *testing.T) {
	git := testutil.NewMockGit()
	git.Repos["/srv/ws/app"] = true
	git.FailNext("Checkout", errors.New("pathspec 'main' did not match"))
	git.FailNext("Checkout", errors.New("pathspec 'main' did not match"))
	sync := NewSynchronizer(git, afero.NewMemMapFs(), nil)

	_, err := sync.Ensure(context.Background(), testRepo)

	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), `"main"`)
	assert.False(t, git.Called("pull origin main"))
}

func TestSynchronizer_Ensure_ResetFails(t *testing.T) {
	git := testutil.NewMockGit()
	git.Repos["/srv/ws/app"] = true
	git.FailNext("Checkout", errors.New("blocked"))
	git.FailNext("ResetHard", errors.New("index.lock exists"))
	sync := NewSynchronizer(git, afero.NewMemMapFs(), nil)

	_, err := sync.Ensure(context.Background(), testRepo)

	assert.ErrorIs(t, err, domain.ErrSyncConflict)
}

func TestSynchronizer_Ensure_Errors(t *testing.T) {
	cmdErr := &domain.CommandError{Args: []string{"git", "x"}, Dir: "/srv/ws", Output: "fatal: boom", Err: errors.New("exit status 128")}

	tests := []struct {
		name   string
		method string
		repos  bool
		want   string
	}{
		{name: "clone", method: "Clone", want: "clone"},
		{name: "fetch", method: "Fetch", repos: true, want: "fetch"},
		{name: "pull", method: "Pull", repos: true, want: "pull main"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			git := testutil.NewMockGit()
			git.Repos["/srv/ws/app"] = tt.repos
			git.FailNext(tt.method, cmdErr)
			sync := NewSynchronizer(git, afero.NewMemMapFs(), nil)

			_, err := sync.Ensure(context.Background(), testRepo)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			var got *domain.CommandError
			require.ErrorAs(t, err, &got)
			assert.Equal(t, "fatal: boom", got.Output)
		})
	}
}

func TestSynchronizer_Ensure_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		repo domain.RepoConfig
	}{
		{"no url", domain.RepoConfig{Branch: "main", Path: "/srv/ws/app"}},
		{"no path", domain.RepoConfig{URL: "u", Branch: "main"}},
		{"no branch", domain.RepoConfig{URL: "u", Path: "/srv/ws/app"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			git := testutil.NewMockGit()
			sync := NewSynchronizer(git, afero.NewMemMapFs(), nil)

			_, err := sync.Ensure(context.Background(), tt.repo)

			assert.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Empty(t, git.Calls)
		})
	}
}

// =============================================================================
// EnsureBranch Tests
// =============================================================================

func TestEnsureBranch_Creates(t *testing.T) {
	git := testutil.NewMockGit()

	require.NoError(t, EnsureBranch(context.Background(), git, "/ws", "cpai-3f2a9c1e"))

	assert.Equal(t, []string{"checkout -b cpai-3f2a9c1e"}, git.Calls)
	assert.True(t, git.Branches["cpai-3f2a9c1e"])
}

func TestEnsureBranch_ChecksOutExisting(t *testing.T) {
	git := testutil.NewMockGit()
	git.Branches["cpai-3f2a9c1e"] = true

	require.NoError(t, EnsureBranch(context.Background(), git, "/ws", "cpai-3f2a9c1e"))

	assert.Equal(t, []string{"checkout cpai-3f2a9c1e"}, git.Calls)
}

func TestEnsureBranch_CreateFails(t *testing.T) {
	git := testutil.NewMockGit()
	git.FailNext("CreateBranch", errors.New("invalid ref"))

	err := EnsureBranch(context.Background(), git, "/ws", "cpai-x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create branch cpai-x")
}
