// Package domain contains core business entities and interfaces.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TaskSchemaVersion is the current version of the persisted task record.
const TaskSchemaVersion = 1

// Default values applied to new tasks.
const (
	DefaultTaskType     = "CODE_CHANGE"
	DefaultTaskPriority = "medium"
	DefaultTaskSource   = "git-pilot"
	DefaultTaskTitle    = "Untitled Task"
)

// Test status values stored in Task.LastTestStatus.
const (
	TestStatusPassed = "passed"
	TestStatusFailed = "failed"
	TestStatusError  = "error"
)

// Timeline labels.
const (
	EventTaskCreated  = "Task created"
	EventFilesGuessed = "Affected files guessed"
	EventCodeApplied  = "Code applied"
	EventApplyFailed  = "Apply failed"
	EventTestsPassed  = "Tests passed"
	EventTestsFailed  = "Tests failed"
	EventTestsErrored = "Tests errored"
	EventTaskClosed   = "Task closed"
)

// Event is a single entry of a task timeline.
// Fields are ordered to minimize memory padding.
type Event struct {
	At    time.Time      `json:"at"`
	Meta  map[string]any `json:"meta,omitempty"`
	Label string         `json:"label"`
}

// RunKind distinguishes apply runs from test runs in the run history.
type RunKind string

const (
	RunKindApply RunKind = "apply"
	RunKindTest  RunKind = "test"
)

// RunRecord is the outcome of one apply or test run.
// Fields are ordered to minimize memory padding.
type RunRecord struct {
	At       time.Time `json:"at"`
	Kind     RunKind   `json:"kind"`
	Branch   string    `json:"branch,omitempty"`
	Commit   string    `json:"commit,omitempty"`
	Error    string    `json:"error,omitempty"`
	Files    []string  `json:"files,omitempty"`
	ExitCode int       `json:"exit_code"`
}

// Task is the unit of work: one change request against one repository.
// Fields are ordered to minimize memory padding.
type Task struct {
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	LastAppliedAt      *time.Time  `json:"last_applied_at,omitempty"`
	LastTestRunAt      *time.Time  `json:"last_test_run_at,omitempty"`
	ID                 string      `json:"task_id"`
	Type               string      `json:"type"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	TargetRepo         string      `json:"target_repo"`
	TargetBranch       string      `json:"target_branch"`
	Priority           string      `json:"priority"`
	Source             string      `json:"source"`
	Status             Status      `json:"status"`
	BranchName         string      `json:"branch_name,omitempty"`
	LastTestStatus     string      `json:"last_test_status,omitempty"`
	LastCommit         string      `json:"last_commit,omitempty"`
	AffectedFiles      []string    `json:"affected_files"`
	AcceptanceCriteria []string    `json:"acceptance_criteria,omitempty"`
	Timeline           []Event     `json:"timeline"`
	Runs               []RunRecord `json:"run_history"`
	SchemaVersion      int         `json:"schema_version"`
}

// NewTask returns an OPEN task with defaults applied and the creation event seeded.
func NewTask(id string, now time.Time, source string) *Task {
	if source == "" {
		source = DefaultTaskSource
	}
	t := &Task{
		ID:            id,
		Type:          DefaultTaskType,
		Priority:      DefaultTaskPriority,
		Source:        source,
		Status:        StatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
		AffectedFiles: []string{},
		Timeline:      []Event{},
		Runs:          []RunRecord{},
		SchemaVersion: TaskSchemaVersion,
	}
	t.AddEvent(EventTaskCreated, now, map[string]any{"source": source})
	return t
}

// NormalizePriority validates a priority name. An empty string yields the
// default priority.
func NormalizePriority(s string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(s)); p {
	case "":
		return DefaultTaskPriority, nil
	case "low", "medium", "high":
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

// AddEvent appends an event to the timeline.
func (t *Task) AddEvent(label string, at time.Time, meta map[string]any) {
	t.Timeline = append(t.Timeline, Event{Label: label, At: at, Meta: meta})
	t.UpdatedAt = at
}

// IsClosed returns true if the task accepts no further mutation.
func (t *Task) IsClosed() bool {
	return t.Status.IsTerminal()
}

// CheckApplicable returns an error if a change cannot be applied to the task.
func (t *Task) CheckApplicable() error {
	if t.IsClosed() {
		return ErrTaskClosed
	}
	if len(t.AffectedFiles) == 0 {
		return ErrNoAffectedFiles
	}
	if !t.Status.CanTransitionTo(StatusCodeApplied) {
		return fmt.Errorf("cannot apply in %s status: %w", t.Status, ErrInvalidTransition)
	}
	return nil
}

// CheckTestable returns an error if tests cannot be run for the task.
func (t *Task) CheckTestable() error {
	if t.IsClosed() {
		return ErrTaskClosed
	}
	if t.BranchName == "" {
		return ErrNoBranch
	}
	return nil
}

// ApplySucceeded records a successful apply and moves the task to CODE_APPLIED.
// The branch name is assigned on the first success and kept afterwards.
// commit is empty when there was nothing to commit.
func (t *Task) ApplySucceeded(branch string, files []string, commit string, at time.Time) error {
	if t.IsClosed() {
		return ErrTaskClosed
	}
	if !t.Status.CanTransitionTo(StatusCodeApplied) {
		return fmt.Errorf("cannot apply in %s status: %w", t.Status, ErrInvalidTransition)
	}
	if t.BranchName == "" {
		t.BranchName = branch
	}
	t.Status = StatusCodeApplied
	t.LastAppliedAt = &at
	if commit != "" {
		t.LastCommit = commit
	}
	meta := map[string]any{
		"branch": t.BranchName,
		"files":  files,
	}
	if commit != "" {
		meta["commit"] = commit
	}
	t.AddEvent(EventCodeApplied, at, meta)
	t.Runs = append(t.Runs, RunRecord{
		Kind:   RunKindApply,
		Branch: t.BranchName,
		Commit: commit,
		Files:  files,
		At:     at,
	})
	return nil
}

// ApplyFailed records a failed apply. The status is left unchanged.
// files lists the files that were actually modified before the failure.
func (t *Task) ApplyFailed(branch string, files []string, cause error, at time.Time) {
	meta := map[string]any{
		"branch": branch,
		"files":  files,
		"error":  cause.Error(),
	}
	t.AddEvent(EventApplyFailed, at, meta)
	t.Runs = append(t.Runs, RunRecord{
		Kind:     RunKindApply,
		Branch:   branch,
		Files:    files,
		Error:    cause.Error(),
		ExitCode: -1,
		At:       at,
	})
}

// TestsFinished records a completed test run. Exit code 0 moves the task to
// TESTS_PASSED, anything else to TESTS_FAILED.
func (t *Task) TestsFinished(exitCode int, at time.Time) error {
	if err := t.CheckTestable(); err != nil {
		return err
	}
	target, label, status := StatusTestsPassed, EventTestsPassed, TestStatusPassed
	if exitCode != 0 {
		target, label, status = StatusTestsFailed, EventTestsFailed, TestStatusFailed
	}
	if !t.Status.CanTransitionTo(target) {
		return fmt.Errorf("cannot record tests in %s status: %w", t.Status, ErrInvalidTransition)
	}
	t.Status = target
	t.LastTestRunAt = &at
	t.LastTestStatus = status
	t.AddEvent(label, at, map[string]any{
		"branch":    t.BranchName,
		"exit_code": exitCode,
	})
	t.Runs = append(t.Runs, RunRecord{
		Kind:     RunKindTest,
		Branch:   t.BranchName,
		ExitCode: exitCode,
		At:       at,
	})
	return nil
}

// TestsErrored records a test invocation that could not produce an exit code
// (no runner, timeout, checkout failure). The status is left unchanged.
func (t *Task) TestsErrored(cause error, at time.Time) {
	t.LastTestRunAt = &at
	t.LastTestStatus = TestStatusError
	t.AddEvent(EventTestsErrored, at, map[string]any{
		"branch": t.BranchName,
		"error":  cause.Error(),
	})
	t.Runs = append(t.Runs, RunRecord{
		Kind:     RunKindTest,
		Branch:   t.BranchName,
		Error:    cause.Error(),
		ExitCode: -1,
		At:       at,
	})
}

// Close moves the task to CLOSED.
func (t *Task) Close(reason string, at time.Time) error {
	if !t.Status.CanTransitionTo(StatusClosed) {
		return fmt.Errorf("cannot close task in %s status: %w", t.Status, ErrInvalidTransition)
	}
	t.Status = StatusClosed
	meta := map[string]any{"branch": t.BranchName}
	if reason != "" {
		meta["reason"] = reason
	}
	t.AddEvent(EventTaskClosed, at, meta)
	return nil
}

// Validate checks the invariants of a persisted task record.
func (t *Task) Validate() error {
	if !ValidTaskID(t.ID) {
		return fmt.Errorf("invalid task id %q", t.ID)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("created_at is required")
	}
	if t.SchemaVersion > TaskSchemaVersion {
		return fmt.Errorf("unsupported schema version %d", t.SchemaVersion)
	}
	switch t.Status {
	case StatusOpen:
		if t.BranchName != "" {
			return errors.New("open task must not have a branch")
		}
	case StatusCodeApplied, StatusTestsPassed, StatusTestsFailed:
		if t.BranchName == "" {
			return fmt.Errorf("%s task must have a branch", t.Status)
		}
	}
	return nil
}
