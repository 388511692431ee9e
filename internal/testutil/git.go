package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetGitIdentity sets a committer identity for git commands run by the test.
func SetGitIdentity(t *testing.T) {
	t.Helper()
	t.Setenv("GIT_AUTHOR_NAME", "Test User")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test User")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
}

// RunGit executes a git command and fails the test if it errors.
func RunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
	return strings.TrimSpace(string(out))
}

// SetupGitRepo creates a repository on branch main with the given files
// committed. Keys are slash-separated relative paths.
func SetupGitRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	SetGitIdentity(t)

	dir := t.TempDir()
	RunGit(t, dir, "init", "-b", "main")
	if len(files) == 0 {
		files = map[string]string{"README.md": "# Test\n"}
	}
	WriteFiles(t, dir, files)
	RunGit(t, dir, "add", ".")
	RunGit(t, dir, "commit", "-m", "Initial commit")
	return dir
}

// SetupRemote creates a bare repository seeded with files on branch main
// and returns its path, usable as a clone URL.
func SetupRemote(t *testing.T, files map[string]string) string {
	t.Helper()
	src := SetupGitRepo(t, files)
	bare := filepath.Join(t.TempDir(), "remote.git")
	RunGit(t, filepath.Dir(bare), "clone", "--bare", src, bare)
	return bare
}

// WriteFiles writes files under dir, creating parent directories.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// PushFiles commits files to branch of remote through a scratch clone,
// simulating another contributor.
func PushFiles(t *testing.T, remote, branch string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "contrib")
	RunGit(t, filepath.Dir(dir), "clone", "-b", branch, remote, dir)
	WriteFiles(t, dir, files)
	RunGit(t, dir, "add", "-A")
	RunGit(t, dir, "commit", "-m", "Upstream change")
	RunGit(t, dir, "push", "origin", branch)
}
