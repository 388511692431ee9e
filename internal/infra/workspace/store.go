// Package workspace provides exclusive access to workspace clones and the
// registry of known workspaces.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/git-pilot/internal/domain"
)

// Ensure Store implements domain.WorkspaceManager.
var _ domain.WorkspaceManager = (*Store)(nil)

// lockPollInterval is how often a contended cross-process lock is retried.
const lockPollInterval = 50 * time.Millisecond

// Store implements WorkspaceManager.
//
// Exclusion is two-level: a one-slot channel per workspace path serializes
// callers in this process (and lets them give up on context cancellation),
// and an flock on "<path>.lock" serializes processes.
// Fields are ordered to minimize memory padding.
type Store struct {
	slots    map[string]chan struct{}
	filePath string
	mu       sync.Mutex // guards slots
	fileMu   sync.Mutex // guards the registry file within the process
}

// NewStore creates a new workspace store.
// dataDir is typically <project>/.pilot.
func NewStore(dataDir string) *Store {
	return &Store{
		slots:    make(map[string]chan struct{}),
		filePath: domain.WorkspacesFilePath(dataDir),
	}
}

// Acquire blocks until the workspace at path is exclusively held by the caller.
func (s *Store) Acquire(ctx context.Context, path string) (func(), error) {
	key, err := normalizePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPath, path)
	}

	slot := s.slot(key)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := os.MkdirAll(filepath.Dir(key), 0o750); err != nil {
		<-slot
		return nil, fmt.Errorf("create workspace parent: %w", err)
	}
	lock, err := lockFile(ctx, key+".lock")
	if err != nil {
		<-slot
		return nil, fmt.Errorf("lock workspace %s: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unlockFile(lock)
			<-slot
		})
	}, nil
}

func (s *Store) slot(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.slots[key] = ch
	}
	return ch
}

// Load reads the registry file.
// Returns an empty file with version 1 if the file doesn't exist.
func (s *Store) Load() (*domain.WorkspaceFile, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &domain.WorkspaceFile{
				Version:    1,
				Workspaces: []domain.WorkspaceEntry{},
			}, nil
		}
		return nil, err
	}

	var file domain.WorkspaceFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, domain.ErrWorkspaceFileCorrupted
	}

	// Deduplicate by path (keep first occurrence)
	file.Workspaces = deduplicate(file.Workspaces)

	return &file, nil
}

// Save writes the registry file.
func (s *Store) Save(file *domain.WorkspaceFile) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o750); err != nil {
		return err
	}

	sortEntries(file.Workspaces)

	data, err := toml.Marshal(file)
	if err != nil {
		return err
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

// List returns the known workspaces, most recently synchronized first.
func (s *Store) List() ([]domain.WorkspaceEntry, error) {
	file, err := s.Load()
	if err != nil {
		return nil, err
	}
	return file.Workspaces, nil
}

// Touch records a successful synchronization of repo at the given time.
// A corrupted registry is replaced rather than blocking the caller.
func (s *Store) Touch(repo domain.RepoConfig, at time.Time) error {
	path, err := normalizePath(repo.Path)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPath, repo.Path)
	}

	return s.withFileLock(func() error {
		file, err := s.Load()
		if err != nil {
			if !errors.Is(err, domain.ErrWorkspaceFileCorrupted) {
				return err
			}
			file = &domain.WorkspaceFile{Version: 1}
		}

		entry := domain.WorkspaceEntry{
			URL:        repo.URL,
			Path:       path,
			Branch:     repo.Branch,
			LastSynced: at.UTC(),
		}
		found := false
		for i := range file.Workspaces {
			if file.Workspaces[i].Path == path {
				file.Workspaces[i] = entry
				found = true
				break
			}
		}
		if !found {
			file.Workspaces = append(file.Workspaces, entry)
		}
		return s.Save(file)
	})
}

// Remove forgets the workspace at path. The clone itself is left on disk.
func (s *Store) Remove(path string) error {
	absPath, err := normalizePath(path)
	if err != nil {
		absPath = path
	}

	return s.withFileLock(func() error {
		file, err := s.Load()
		if err != nil {
			return err
		}
		kept := make([]domain.WorkspaceEntry, 0, len(file.Workspaces))
		for _, e := range file.Workspaces {
			if e.Path != absPath {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(file.Workspaces) {
			return fmt.Errorf("workspace %s is not registered", absPath)
		}
		file.Workspaces = kept
		return s.Save(file)
	})
}

func (s *Store) withFileLock(fn func() error) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o750); err != nil {
		return err
	}
	lock, err := lockFile(context.Background(), s.filePath+".lock")
	if err != nil {
		return fmt.Errorf("lock workspace registry: %w", err)
	}
	defer unlockFile(lock)
	return fn()
}

// lockFile takes an exclusive flock on path, polling so that ctx can
// interrupt the wait.
func lockFile(ctx context.Context, path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			_ = f.Close()
			return nil, err
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func unlockFile(f *os.File) {
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	_ = f.Close()
}

// normalizePath converts a path to an absolute, cleaned path.
func normalizePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(absPath), nil
}

// deduplicate removes duplicate entries by path, keeping the first occurrence.
func deduplicate(entries []domain.WorkspaceEntry) []domain.WorkspaceEntry {
	seen := make(map[string]bool)
	result := make([]domain.WorkspaceEntry, 0, len(entries))
	for _, e := range entries {
		if !seen[e.Path] {
			seen[e.Path] = true
			result = append(result, e)
		}
	}
	return result
}

// sortEntries sorts by last_synced desc, then path asc.
func sortEntries(entries []domain.WorkspaceEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].LastSynced.Equal(entries[j].LastSynced) {
			return entries[i].LastSynced.After(entries[j].LastSynced)
		}
		return entries[i].Path < entries[j].Path
	})
}
