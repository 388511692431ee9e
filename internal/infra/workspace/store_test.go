package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-pilot/internal/domain"
)

var syncedAt = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func TestStore_LoadEmpty(t *testing.T) {
	store := NewStore(t.TempDir())

	file, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, file.Version)
	assert.Empty(t, file.Workspaces)
}

func TestStore_TouchAndList(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	wsA := filepath.Join(dir, "workspace", "a")
	wsB := filepath.Join(dir, "workspace", "b")

	require.NoError(t, store.Touch(domain.RepoConfig{URL: "https://x/a.git", Branch: "main", Path: wsA}, syncedAt))
	require.NoError(t, store.Touch(domain.RepoConfig{URL: "https://x/b.git", Branch: "dev", Path: wsB}, syncedAt.Add(time.Hour)))
	require.NoError(t, store.Touch(domain.RepoConfig{URL: "https://x/a.git", Branch: "main", Path: wsA}, syncedAt.Add(2*time.Hour)))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, wsA, entries[0].Path)
	assert.True(t, syncedAt.Add(2*time.Hour).Equal(entries[0].LastSynced))
	assert.Equal(t, "https://x/b.git", entries[1].URL)
	assert.Equal(t, "dev", entries[1].Branch)

	info, err := os.Stat(domain.WorkspacesFilePath(dir))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_Touch_ReplacesCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(domain.WorkspacesFilePath(dir), []byte("not = [valid"), 0o600))

	_, err := store.Load()
	assert.ErrorIs(t, err, domain.ErrWorkspaceFileCorrupted)

	require.NoError(t, store.Touch(domain.RepoConfig{URL: "u", Branch: "main", Path: filepath.Join(dir, "ws")}, syncedAt))
	entries, err := store.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_Remove(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ws := filepath.Join(dir, "ws")
	require.NoError(t, store.Touch(domain.RepoConfig{URL: "u", Branch: "main", Path: ws}, syncedAt))

	require.NoError(t, store.Remove(ws))
	assert.Error(t, store.Remove(ws))

	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_LoadDeduplicates(t *testing.T) {
	dir := t.TempDir()
	content := `version = 1

[[workspaces]]
url = "first"
path = "/srv/ws"

[[workspaces]]
url = "second"
path = "/srv/ws"
`
	require.NoError(t, os.WriteFile(domain.WorkspacesFilePath(dir), []byte(content), 0o600))

	file, err := NewStore(dir).Load()
	require.NoError(t, err)
	require.Len(t, file.Workspaces, 1)
	assert.Equal(t, "first", file.Workspaces[0].URL)
}

// =============================================================================
// Acquire Tests
// =============================================================================

func TestStore_Acquire_Exclusive(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ws := filepath.Join(dir, "workspace", "repo")

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := store.Acquire(context.Background(), ws)
			if !assert.NoError(t, err) {
				return
			}
			defer release()
			n := active.Add(1)
			for {
				cur := maxActive.Load()
				if n <= cur || maxActive.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
	assert.FileExists(t, ws+".lock")
}

func TestStore_Acquire_DistinctPathsIndependent(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	releaseA, err := store.Acquire(context.Background(), filepath.Join(dir, "a"))
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := store.Acquire(ctx, filepath.Join(dir, "b"))
	require.NoError(t, err)
	releaseB()
}

func TestStore_Acquire_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ws := filepath.Join(dir, "ws")

	release, err := store.Acquire(context.Background(), ws)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = store.Acquire(ctx, ws)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release() // second call is a no-op

	again, err := store.Acquire(context.Background(), ws)
	require.NoError(t, err)
	again()
}

func TestStore_Acquire_CrossInstance(t *testing.T) {
	dir := t.TempDir()
	ws := filepath.Join(dir, "ws")
	first := NewStore(dir)
	second := NewStore(dir)

	release, err := first.Acquire(context.Background(), ws)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = second.Acquire(ctx, ws)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "flock must block a second holder")

	release()
	release2, err := second.Acquire(context.Background(), ws)
	require.NoError(t, err)
	release2()
}

func TestStore_Acquire_EmptyPath(t *testing.T) {
	_, err := NewStore(t.TempDir()).Acquire(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}
