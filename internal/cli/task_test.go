package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/testutil"
)

const (
	testTaskID = "3f2a9c1e-0000-4000-8000-000000000001"
	entryFile  = "src/main/java/app/JournalEntry.java"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// cliFixture wires a container to mocks over an in-memory workspace.
type cliFixture struct {
	c      *app.Container
	tasks  *testutil.MockTaskRepository
	git    *testutil.MockGit
	specs  *testutil.MockSpecGenerator
	runner *testutil.MockTestRunner
}

// newTestContainer creates an app.Container with mock dependencies.
func newTestContainer(t *testing.T) *cliFixture {
	t.Helper()
	cfg := domain.NewDefaultConfig()
	cfg.Repo = domain.RepoConfig{
		URL:    "https://example.com/acme/journal.git",
		Branch: "main",
		Path:   "/srv/ws/journal",
	}
	cfg.Tasks.Dir = "/srv/pilot/tasks"

	f := &cliFixture{
		tasks:  testutil.NewMockTaskRepository(),
		git:    testutil.NewMockGit(),
		specs:  &testutil.MockSpecGenerator{},
		runner: &testutil.MockTestRunner{Result: &domain.TestResult{Command: "mvn test", Stdout: "BUILD SUCCESS\n"}},
	}
	f.git.Tracked = []string{"README.md", entryFile}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := app.NewWithDeps(app.Config{DataDir: t.TempDir()}, cfg, f.tasks, &testutil.MockClock{NowTime: testNow}, logger)
	c.IDs = &testutil.MockIDGenerator{IDs: []string{testTaskID}}
	c.Git = f.git
	c.Workspaces = &testutil.MockWorkspaceManager{}
	c.Generator = &testutil.MockContentGenerator{}
	c.Specs = f.specs
	c.Runner = f.runner
	require.NoError(t, afero.WriteFile(c.FS, cfg.Repo.Path+"/README.md", []byte("# journal\n"), 0o644))

	f.c = c
	return f
}

// seed stores a task with one affected file.
func (f *cliFixture) seed(id, title string, status domain.Status) *domain.Task {
	task := domain.NewTask(id, testNow.Add(-time.Hour), "")
	task.Title = title
	task.Description = title
	task.TargetBranch = "main"
	task.AffectedFiles = []string{entryFile}
	task.Status = status
	if status != domain.StatusOpen {
		task.BranchName = domain.BranchName(id)
	}
	f.tasks.Tasks[id] = task
	return task
}

// =============================================================================
// New Command Tests
// =============================================================================

func TestNewNewCommand_CreateTask(t *testing.T) {
	f := newTestContainer(t)

	cmd := newNewCommand(f.c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{
		"--title", "Add createdAt",
		"--body", "Add a createdAt field",
		"--priority", "HIGH",
		"--file", entryFile,
		"--file", "README.md",
		"--accept", "entries expose createdAt",
	})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "Created task "+testTaskID+"\n", buf.String())

	task := f.tasks.Tasks[testTaskID]
	require.NotNil(t, task)
	assert.Equal(t, "Add a createdAt field", task.Description)
	assert.Equal(t, "high", task.Priority)
	assert.Equal(t, "main", task.TargetBranch)
	assert.Equal(t, "https://example.com/acme/journal.git", task.TargetRepo)
	assert.Equal(t, []string{entryFile, "README.md"}, task.AffectedFiles)
	assert.Equal(t, []string{"entries expose createdAt"}, task.AcceptanceCriteria)
	assert.Equal(t, domain.StatusOpen, task.Status)
}

func TestNewNewCommand_FlagErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing title", args: []string{"--body", "x"}, wantErr: `required flag(s) "title" not set`},
		{name: "from and message", args: []string{"--from", "a.md", "--message", "x"}, wantErr: "mutually exclusive"},
		{name: "dry run alone", args: []string{"--title", "x", "--dry-run"}, wantErr: "--dry-run requires --from"},
		{name: "bad priority", args: []string{"--title", "x", "--priority", "asap"}, wantErr: "invalid priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestContainer(t)

			cmd := newNewCommand(f.c)
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, f.tasks.Tasks)
		})
	}
}

func TestNewNewCommand_FromMessage(t *testing.T) {
	f := newTestContainer(t)
	f.specs.Result = &domain.SpecResult{
		Title:         "Add createdAt",
		Description:   "Add a createdAt timestamp",
		AffectedFiles: []string{"JournalEntry.kt"},
	}

	cmd := newNewCommand(f.c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--message", "journal entries need a created date"})

	err := cmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Created task "+testTaskID)
	assert.Contains(t, out, "Title: Add createdAt")
	assert.Contains(t, out, "Note: none of the proposed files is tracked (JournalEntry.kt)")
	require.Len(t, f.specs.Requests, 1)
}

const draftFile = `---
title: Add created date
files: [src/main/java/app/JournalEntry.java]
priority: high
acceptance:
  - entries expose createdAt
---
Add a createdAt timestamp to JournalEntry.
Set it on save.

---
title: Document createdAt
branch: develop
files: [README.md]
---
`

func writeDraftFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.md")
	require.NoError(t, os.WriteFile(path, []byte(draftFile), 0o644))
	return path
}

func TestNewNewCommand_FromFile(t *testing.T) {
	f := newTestContainer(t)
	path := writeDraftFile(t)

	cmd := newNewCommand(f.c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--from", path})

	err := cmd.Execute()

	require.NoError(t, err)
	require.Len(t, f.tasks.Tasks, 2)
	first := f.tasks.Tasks[testTaskID]
	require.NotNil(t, first)
	assert.Equal(t, path, first.Source)
	assert.Equal(t, "high", first.Priority)

	out := buf.String()
	assert.Contains(t, out, "Created task "+testTaskID+":")
	assert.Contains(t, out, "  Branch: develop")
	assert.Contains(t, out, "  Description: Add a createdAt timestamp to JournalEntry. ...")
}

func TestNewNewCommand_FromFileDryRun(t *testing.T) {
	f := newTestContainer(t)
	path := writeDraftFile(t)

	cmd := newNewCommand(f.c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--from", path, "--dry-run", "--source", "backlog"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Empty(t, f.tasks.Tasks)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Dry run - tasks that would be created:"))
	assert.Contains(t, out, "Task 1:")
	assert.Contains(t, out, "Task 2:")
	assert.Contains(t, out, "  Files: [README.md]")
}

// =============================================================================
// List and Show Command Tests
// =============================================================================

func TestNewListCommand_Empty(t *testing.T) {
	f := newTestContainer(t)

	cmd := newListCommand(f.c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "ID   STATUS   PRIORITY   BRANCH   TESTS   TITLE\n", buf.String())
}

func TestNewListCommand_Filters(t *testing.T) {
	f := newTestContainer(t)
	f.seed("aaaaaaaa-1", "Open task", domain.StatusOpen)
	f.seed("bbbbbbbb-2", "Closed task", domain.StatusClosed)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{name: "default hides closed", args: nil, want: []string{"Open task"}, notWant: []string{"Closed task"}},
		{name: "all", args: []string{"--all"}, want: []string{"Open task", "Closed task"}},
		{name: "status lowercase", args: []string{"-s", "closed"}, want: []string{"Closed task"}, notWant: []string{"Open task"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newListCommand(f.c)
			var buf bytes.Buffer
			cmd.SetOut(&buf)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestNewListCommand_InvalidStatus(t *testing.T) {
	f := newTestContainer(t)

	cmd := newListCommand(f.c)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--status", "done"})

	err := cmd.Execute()

	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestPrintTaskList(t *testing.T) {
	task := domain.NewTask(testTaskID, testNow, "")
	task.Title = "Add createdAt"
	task.Status = domain.StatusTestsFailed
	task.BranchName = domain.BranchName(testTaskID)
	task.LastTestStatus = domain.TestStatusFailed

	var buf bytes.Buffer
	printTaskList(&buf, []*domain.Task{task})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	fields := strings.Fields(lines[1])
	assert.Equal(t, []string{"3f2a9c1e", "TESTS_FAILED", "medium", task.BranchName, "failed", "Add", "createdAt"}, fields)
}

func TestNewShowCommand_ByPrefix(t *testing.T) {
	f := newTestContainer(t)
	task := f.seed(testTaskID, "Add createdAt", domain.StatusCodeApplied)
	task.AcceptanceCriteria = []string{"entries expose createdAt"}
	task.AddEvent(domain.EventCodeApplied, testNow, map[string]any{"branch": task.BranchName, "commit": "abc123"})

	cmd := newShowCommand(f.c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"#3f2a"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "# Task "+testTaskID+": Add createdAt")
	assert.Contains(t, out, "Status: CODE_APPLIED")
	assert.Contains(t, out, "Target: configured repository (main)")
	assert.Contains(t, out, "Branch: "+task.BranchName)
	assert.Contains(t, out, "  - "+entryFile)
	assert.Contains(t, out, "Acceptance criteria:")
	assert.Contains(t, out, "Code applied (branch="+task.BranchName+", commit=abc123)")
}

func TestNewShowCommand_JSON(t *testing.T) {
	f := newTestContainer(t)
	f.seed(testTaskID, "Add createdAt", domain.StatusOpen)

	cmd := newShowCommand(f.c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{testTaskID, "--json"})

	require.NoError(t, cmd.Execute())
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testTaskID, decoded["task_id"])
	assert.Equal(t, "OPEN", decoded["status"])
}

func TestResolveTaskID(t *testing.T) {
	f := newTestContainer(t)
	f.seed("aaaa1111-x", "One", domain.StatusOpen)
	f.seed("aaaa2222-y", "Two", domain.StatusOpen)
	f.seed("aaaa", "Exact", domain.StatusOpen)

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr string
	}{
		{name: "exact match wins over prefix", arg: "aaaa", want: "aaaa"},
		{name: "unique prefix", arg: "aaaa1", want: "aaaa1111-x"},
		{name: "hash prefix", arg: "#aaaa2", want: "aaaa2222-y"},
		{name: "ambiguous", arg: "aaa", wantErr: "ambiguous"},
		{name: "unknown", arg: "ffff", wantErr: "task not found"},
		{name: "empty", arg: " # ", wantErr: "empty id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTaskID(f.tasks, tt.arg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// Close Command Tests
// =============================================================================

func TestNewCloseCommand(t *testing.T) {
	f := newTestContainer(t)
	f.seed(testTaskID, "Add createdAt", domain.StatusTestsPassed)

	cmd := newCloseCommand(f.c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"3f2a9c1e", "--reason", "merged"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Closed task 3f2a9c1e: Add createdAt\n", buf.String())

	task := f.tasks.Tasks[testTaskID]
	assert.Equal(t, domain.StatusClosed, task.Status)
	last := task.Timeline[len(task.Timeline)-1]
	assert.Equal(t, domain.EventTaskClosed, last.Label)
	assert.Equal(t, "merged", last.Meta["reason"])
}

func TestNewCloseCommand_AlreadyClosed(t *testing.T) {
	f := newTestContainer(t)
	f.seed(testTaskID, "Add createdAt", domain.StatusClosed)

	cmd := newCloseCommand(f.c)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{testTaskID})

	assert.Error(t, cmd.Execute())
}

func TestFormatMeta(t *testing.T) {
	assert.Equal(t, "", formatMeta(nil))
	assert.Equal(t, "", formatMeta(map[string]any{"files": []string{"a"}}))
	assert.Equal(t, " (branch=cpai-1, exit_code=1)", formatMeta(map[string]any{"exit_code": 1, "branch": "cpai-1"}))
}
