// Package taskstore provides a file-based implementation of TaskRepository.
// Each task is one JSON document at <dir>/<id>.json.
package taskstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/runoshun/git-pilot/internal/domain"
)

const lockDirName = ".locks"

// Store implements domain.TaskRepository using one file per task.
// Readers take a shared flock on the task's lock file and writers an
// exclusive one, so distinct tasks never contend.
type Store struct {
	logger domain.Logger // Optional; reports skipped records
	dir    string
}

// New creates a new Store rooted at dir. The directory is created on first write.
func New(dir string, logger domain.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the directory holding the task files.
func (s *Store) Dir() string {
	return s.dir
}

// Get retrieves a task by ID. Returns nil if not found.
func (s *Store) Get(id string) (*domain.Task, error) {
	if !domain.ValidTaskID(id) {
		return nil, nil
	}
	var task *domain.Task
	err := s.withLock(id, syscall.LOCK_SH, func() error {
		t, err := s.readTask(id)
		task = t
		return err
	})
	return task, err
}

// List retrieves all readable tasks sorted by creation time, newest first.
// Files that cannot be decoded are skipped and logged.
func (s *Store) List() ([]*domain.Task, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []*domain.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tasks directory: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if !domain.ValidTaskID(id) {
			continue
		}
		task, err := s.Get(id)
		if err != nil {
			s.warn(fmt.Sprintf("skipping task file %s: %v", name, err))
			continue
		}
		if task != nil {
			tasks = append(tasks, task)
		}
	}

	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

// Create stores a new task. Returns ErrTaskExists if the ID is taken.
func (s *Store) Create(task *domain.Task) error {
	if err := validate(task); err != nil {
		return err
	}
	return s.withLock(task.ID, syscall.LOCK_EX, func() error {
		if _, err := os.Stat(s.taskPath(task.ID)); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrTaskExists, task.ID)
		}
		return s.writeTask(task)
	})
}

// Save creates or replaces a task.
func (s *Store) Save(task *domain.Task) error {
	if err := validate(task); err != nil {
		return err
	}
	return s.withLock(task.ID, syscall.LOCK_EX, func() error {
		return s.writeTask(task)
	})
}

// Update reads the task, applies fn and writes the result, all under the
// task's exclusive lock. Nothing is written when fn returns an error.
func (s *Store) Update(id string, fn func(*domain.Task) error) (*domain.Task, error) {
	if !domain.ValidTaskID(id) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	var task *domain.Task
	err := s.withLock(id, syscall.LOCK_EX, func() error {
		t, err := s.readTask(id)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		if err := fn(t); err != nil {
			return err
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("invalid task %s: %w", id, err)
		}
		task = t
		return s.writeTask(t)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) taskPath(id string) string {
	return domain.TaskFilePath(s.dir, id)
}

func (s *Store) lockPath(id string) string {
	return filepath.Join(s.dir, lockDirName, id+".lock")
}

func (s *Store) withLock(id string, lockType int, fn func() error) error {
	lock, err := s.acquireLock(id, lockType)
	if err != nil {
		return err
	}
	defer releaseLock(lock)
	return fn()
}

func (s *Store) acquireLock(id string, lockType int) (*os.File, error) {
	if err := os.MkdirAll(filepath.Join(s.dir, lockDirName), 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath(id), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

func (s *Store) readTask(id string) (*domain.Task, error) {
	content, err := os.ReadFile(s.taskPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read task %s: %w", id, err)
	}

	var task domain.Task
	if err := decodeJSONStrict(content, &task); err != nil {
		return nil, fmt.Errorf("parse task %s: %w", id, err)
	}
	if task.ID != id {
		return nil, fmt.Errorf("task file %s.json holds id %q", id, task.ID)
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task %s: %w", id, err)
	}
	return &task, nil
}

func (s *Store) writeTask(task *domain.Task) error {
	content, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task %s: %w", task.ID, err)
	}
	content = append(content, '\n')
	return writeAtomic(s.taskPath(task.ID), content, 0o644)
}

func (s *Store) warn(msg string) {
	if s.logger != nil {
		s.logger.Warn("", "taskstore", msg)
	}
}

func validate(task *domain.Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	return nil
}

func decodeJSONStrict(content []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("unexpected trailing content")
	}
	return nil
}

func writeAtomic(path string, content []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Ensure Store implements domain.TaskRepository interface.
var _ domain.TaskRepository = (*Store)(nil)
