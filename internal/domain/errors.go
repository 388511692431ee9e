package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors.
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskExists         = errors.New("task already exists")
	ErrTaskClosed         = errors.New("task is closed (create a new task)")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrNoAffectedFiles    = errors.New("task has no affected files")
	ErrNoBranch           = errors.New("task has no branch (apply a change first)")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrNotInitialized     = errors.New("git-pilot not initialized (run 'pilot init' first)")
	ErrAlreadyInitialized = errors.New("git-pilot already initialized")
	ErrEmptyFile          = errors.New("file is empty")
	ErrNoTasksInFile      = errors.New("no tasks found in file")
	ErrConfigExists       = errors.New("config file already exists")
	ErrInvalidPriority    = errors.New("invalid priority (want low, medium or high)")
	ErrInvalidPolicy      = errors.New("unknown resolve policy")
	ErrNoLog              = errors.New("no log recorded")

	// ErrConfiguration covers missing repository settings and a baseline
	// branch that cannot be checked out even after recovery.
	ErrConfiguration = errors.New("configuration error")

	// ErrSyncConflict is returned when the workspace is dirty and cannot be recovered.
	ErrSyncConflict = errors.New("workspace synchronization conflict")

	ErrAmbiguousPath  = errors.New("ambiguous path")
	ErrMissingTarget  = errors.New("missing target")
	ErrInvalidPath    = errors.New("invalid path")
	ErrGeneration     = errors.New("content generation failed")
	ErrPublish        = errors.New("publish failed")
	ErrNoTestRunner   = errors.New("no test runner found")
	ErrTestTimeout    = errors.New("test run timed out")
	ErrNoTrackedFiles = errors.New("repository has no tracked files")

	// ErrWorkspaceFileCorrupted is returned when workspaces.toml cannot be parsed.
	ErrWorkspaceFileCorrupted = errors.New("workspace registry file is corrupted")
)

// CommandError is returned when an external command exits unsuccessfully.
// It keeps enough context to reproduce the failure by hand.
// Fields are ordered to minimize memory padding.
type CommandError struct {
	Err    error
	Dir    string
	Output string
	Args   []string
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s (in %s): %v", strings.Join(e.Args, " "), e.Dir, e.Err)
	}
	return fmt.Sprintf("%s (in %s): %v: %s", strings.Join(e.Args, " "), e.Dir, e.Err, out)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// OutputContains reports whether the captured output contains any of the given fragments.
func (e *CommandError) OutputContains(fragments ...string) bool {
	for _, f := range fragments {
		if strings.Contains(e.Output, f) {
			return true
		}
	}
	return false
}

// AmbiguousPathError is returned when a declared path matches several files.
type AmbiguousPathError struct {
	Path       string
	Candidates []string
}

func (e *AmbiguousPathError) Error() string {
	return fmt.Sprintf("%s: %s matches %s", ErrAmbiguousPath, e.Path, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousPathError) Is(target error) bool {
	return target == ErrAmbiguousPath
}

// MissingTargetError is returned when a declared path does not exist and the
// caller asked for strict resolution.
type MissingTargetError struct {
	Path string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("%s: %s not found in workspace", ErrMissingTarget, e.Path)
}

func (e *MissingTargetError) Is(target error) bool {
	return target == ErrMissingTarget
}

func configError(msg string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, msg)
}
