package tui

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/testutil"
	"github.com/runoshun/git-pilot/internal/usecase"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestModel(t *testing.T, tasks ...*domain.Task) (*Model, *testutil.MockTaskRepository) {
	t.Helper()
	repo := testutil.NewMockTaskRepository()
	for _, task := range tasks {
		repo.Tasks[task.ID] = task
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := app.NewWithDeps(app.Config{DataDir: "/srv/pilot"}, nil, repo, &testutil.MockClock{NowTime: testNow}, logger)

	m := New(c)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(MsgTasksLoaded{Tasks: tasks})
	return m, repo
}

func newBoardTask(id, title string, status domain.Status, created time.Time) *domain.Task {
	task := domain.NewTask(id, created, "")
	task.Title = title
	task.Status = status
	task.AffectedFiles = []string{"src/main/java/app/JournalEntry.java"}
	if status != domain.StatusOpen {
		task.BranchName = domain.BranchName(id)
	}
	return task
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// Loading and ordering
// =============================================================================

func TestUpdate_MsgTasksLoaded_GroupsByStatus(t *testing.T) {
	open := newBoardTask("aaaaaaaa-1", "Open task", domain.StatusOpen, testNow)
	failed := newBoardTask("bbbbbbbb-2", "Failing task", domain.StatusTestsFailed, testNow.Add(-2*time.Hour))
	applied := newBoardTask("cccccccc-3", "Applied task", domain.StatusCodeApplied, testNow.Add(-time.Hour))

	m, _ := newTestModel(t, open, failed, applied)

	items := m.taskList.Items()
	require.Len(t, items, 3)
	assert.Equal(t, failed.ID, items[0].(taskItem).task.ID)
	assert.Equal(t, applied.ID, items[1].(taskItem).task.ID)
	assert.Equal(t, open.ID, items[2].(taskItem).task.ID)
}

func TestUpdate_MsgTasksLoaded_KeepsSelection(t *testing.T) {
	first := newBoardTask("aaaaaaaa-1", "First", domain.StatusOpen, testNow)
	second := newBoardTask("bbbbbbbb-2", "Second", domain.StatusOpen, testNow.Add(-time.Hour))
	m, _ := newTestModel(t, first, second)

	m.taskList.Select(1)
	require.Equal(t, second.ID, m.SelectedTask().ID)

	newer := newBoardTask("cccccccc-3", "Newest", domain.StatusOpen, testNow.Add(time.Hour))
	m.Update(MsgTasksLoaded{Tasks: []*domain.Task{newer, first, second}})

	assert.Equal(t, second.ID, m.SelectedTask().ID)
}

func TestLoadTasks_HidesClosedUnlessShowAll(t *testing.T) {
	open := newBoardTask("aaaaaaaa-1", "Open", domain.StatusOpen, testNow)
	closed := newBoardTask("bbbbbbbb-2", "Closed", domain.StatusClosed, testNow)
	m, _ := newTestModel(t, open, closed)

	msg := m.loadTasks()()
	loaded, ok := msg.(MsgTasksLoaded)
	require.True(t, ok)
	assert.Len(t, loaded.Tasks, 1)

	_, cmd := m.Update(keyPress("A"))
	require.NotNil(t, cmd)
	loaded, ok = cmd().(MsgTasksLoaded)
	require.True(t, ok)
	assert.Len(t, loaded.Tasks, 2)
}

// =============================================================================
// Actions
// =============================================================================

func TestClose_ConfirmThenClose(t *testing.T) {
	task := newBoardTask("aaaaaaaa-1", "Add createdAt", domain.StatusCodeApplied, testNow)
	m, repo := newTestModel(t, task)

	m.Update(keyPress("c"))
	assert.Equal(t, ModeConfirm, m.mode)
	assert.Equal(t, ConfirmClose, m.confirmAction)

	_, cmd := m.Update(keyPress("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, ModeNormal, m.mode)

	msg := cmd()
	closed, ok := msg.(MsgTaskClosed)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, task.ID, closed.TaskID)
	assert.Equal(t, domain.StatusClosed, repo.Tasks[task.ID].Status)

	m.Update(msg)
	assert.Contains(t, m.notice, "Closed aaaaaaaa")
}

func TestClose_Cancel(t *testing.T) {
	task := newBoardTask("aaaaaaaa-1", "Add createdAt", domain.StatusOpen, testNow)
	m, repo := newTestModel(t, task)

	m.Update(keyPress("c"))
	_, cmd := m.Update(keyPress("n"))

	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, domain.StatusOpen, repo.Tasks[task.ID].Status)
}

func TestApply_AsksConfirmAndMarksBusy(t *testing.T) {
	task := newBoardTask("aaaaaaaa-1", "Add createdAt", domain.StatusOpen, testNow)
	m, _ := newTestModel(t, task)

	m.Update(keyPress("a"))
	require.Equal(t, ModeConfirm, m.mode)
	assert.Equal(t, ConfirmApply, m.confirmAction)
	assert.Contains(t, m.View(), "Apply task aaaaaaaa?")

	_, cmd := m.Update(keyPress("y"))
	assert.NotNil(t, cmd)
	assert.Equal(t, "Applying aaaaaaaa...", m.busy)
}

func TestActions_RejectedBeforeRunning(t *testing.T) {
	noFiles := newBoardTask("aaaaaaaa-1", "No files", domain.StatusOpen, testNow)
	noFiles.AffectedFiles = nil

	tests := []struct {
		name    string
		task    *domain.Task
		key     string
		wantErr error
	}{
		{name: "apply without files", task: noFiles, key: "a", wantErr: domain.ErrNoAffectedFiles},
		{name: "test without branch", task: newBoardTask("bbbbbbbb-2", "Fresh", domain.StatusOpen, testNow), key: "t", wantErr: domain.ErrNoBranch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, tt.task)

			_, cmd := m.Update(keyPress(tt.key))

			assert.Nil(t, cmd)
			assert.Equal(t, ModeNormal, m.mode)
			assert.ErrorIs(t, m.err, tt.wantErr)
			assert.Contains(t, m.View(), "Error: ")
		})
	}
}

func TestUpdate_MsgTaskApplied(t *testing.T) {
	m, _ := newTestModel(t)
	m.busy = "Applying..."

	_, cmd := m.Update(MsgTaskApplied{Output: &usecase.ApplyChangeOutput{
		Task:      newBoardTask("aaaaaaaa-1", "x", domain.StatusCodeApplied, testNow),
		Branch:    "cpai-aaaaaaaa",
		Commit:    "0123456789abcdef",
		Committed: true,
	}})

	assert.NotNil(t, cmd)
	assert.Empty(t, m.busy)
	assert.Equal(t, "Committed 01234567 on cpai-aaaaaaaa", m.notice)
}

func TestUpdate_MsgTestsRun(t *testing.T) {
	task := newBoardTask("aaaaaaaa-1", "x", domain.StatusTestsFailed, testNow)

	t.Run("passed", func(t *testing.T) {
		m, _ := newTestModel(t)
		m.Update(MsgTestsRun{Output: &usecase.RunTestsOutput{Task: task, Result: &domain.TestResult{ExitCode: 0}}})
		assert.NoError(t, m.err)
		assert.Equal(t, "Tests passed for aaaaaaaa", m.notice)
	})

	t.Run("failed", func(t *testing.T) {
		m, _ := newTestModel(t)
		m.Update(MsgTestsRun{Output: &usecase.RunTestsOutput{Task: task, Result: &domain.TestResult{ExitCode: 2}}})
		require.Error(t, m.err)
		assert.Contains(t, m.err.Error(), "exit code 2")
	})
}

func TestUpdate_MsgError_ResetsMode(t *testing.T) {
	m, _ := newTestModel(t, newBoardTask("aaaaaaaa-1", "x", domain.StatusOpen, testNow))
	m.Update(keyPress("c"))
	m.busy = "Applying..."

	m.Update(MsgError{Err: errors.New("push rejected")})

	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, ConfirmNone, m.confirmAction)
	assert.Empty(t, m.busy)
	assert.Contains(t, m.View(), "push rejected")
}

// =============================================================================
// Views
// =============================================================================

func TestView_ListAndEmptyState(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Contains(t, m.View(), "No open tasks")

	m.Update(MsgTasksLoaded{Tasks: []*domain.Task{
		newBoardTask("aaaaaaaa-1", "Add createdAt", domain.StatusTestsPassed, testNow),
	}})
	view := m.View()
	assert.Contains(t, view, "aaaaaaaa")
	assert.Contains(t, view, "Add createdAt")
	assert.Contains(t, view, "passed")
	assert.Contains(t, view, "1 open tasks")
}

func TestView_Detail(t *testing.T) {
	task := newBoardTask("aaaaaaaa-1", "Add createdAt", domain.StatusCodeApplied, testNow)
	task.AcceptanceCriteria = []string{"entries expose createdAt"}
	m, _ := newTestModel(t, task)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ModeDetail, m.mode)

	view := m.View()
	assert.Contains(t, view, "Task aaaaaaaa-1")
	assert.Contains(t, view, "cpai-")
	assert.Contains(t, view, "JournalEntry.java")
	assert.Contains(t, view, "entries expose createdAt")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeNormal, m.mode)
}

func TestView_Help(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(keyPress("?"))

	assert.Equal(t, ModeHelp, m.mode)
	view := m.View()
	assert.Contains(t, view, "Keyboard shortcuts")
	assert.Contains(t, view, "apply")
}

func TestTaskDelegate_Render(t *testing.T) {
	task := newBoardTask("3f2a9c1e-0000-4000", "Add a createdAt field to journal entries", domain.StatusTestsFailed, testNow)
	task.AffectedFiles = append(task.AffectedFiles, "README.md")
	task.LastTestStatus = domain.TestStatusFailed

	styles := DefaultStyles()
	l := list.New([]list.Item{taskItem{task: task}}, newTaskDelegate(styles), 100, 10)

	var buf bytes.Buffer
	newTaskDelegate(styles).Render(&buf, l, 0, taskItem{task: task})

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], ">")
	assert.Contains(t, lines[0], "3f2a9c1e")
	assert.NotContains(t, lines[0], "3f2a9c1e-")
	assert.Contains(t, lines[0], "failed")
	assert.Contains(t, lines[1], "JournalEntry.java +1")
	assert.Contains(t, lines[1], "tests failed")
}

func TestFit(t *testing.T) {
	assert.Equal(t, "short     ", fit("short", 10))
	assert.Equal(t, "a long ...", fit("a long title here", 10))
}

func TestStatusIcon(t *testing.T) {
	for _, s := range domain.AllStatuses() {
		assert.NotEqual(t, "?", StatusIcon(s), s)
	}
	assert.Equal(t, "?", StatusIcon(domain.Status("BOGUS")))
}

// =============================================================================
// Watcher
// =============================================================================

func waitMsg(t *testing.T, cmd tea.Cmd, timeout time.Duration) (tea.Msg, bool) {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(timeout):
		return nil, false
	}
}

func TestTaskWatcher_ReportsRecordChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := newTaskWatcher(dir)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.json"), []byte(`{}`), 0o644))

	msg, ok := waitMsg(t, w.wait(), 5*time.Second)
	require.True(t, ok, "no change reported")
	assert.IsType(t, MsgTasksChanged{}, msg)
}

func TestTaskWatcher_IgnoresTempFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := newTaskWatcher(dir)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.json.tmp"), []byte(`{}`), 0o644))

	_, ok := waitMsg(t, w.wait(), 500*time.Millisecond)
	assert.False(t, ok)
}

func TestTaskWatcher_WaitReturnsNilAfterClose(t *testing.T) {
	w, err := newTaskWatcher(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	msg, ok := waitMsg(t, w.wait(), time.Second)
	require.True(t, ok)
	assert.Nil(t, msg)
}
