package tui

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase"
)

// Model is the main bubbletea model for the board.
type Model struct {
	// Dependencies (pointers first for alignment)
	container *app.Container
	watcher   *taskWatcher
	err       error

	// State
	tasks []*domain.Task

	// Components
	keys           KeyMap
	styles         Styles
	help           help.Model
	taskList       list.Model
	detailViewport viewport.Model

	// Strings
	notice        string // Outcome of the last action
	busy          string // Action in progress
	confirmTaskID string

	// Numeric state (smaller types last)
	mode          Mode
	confirmAction ConfirmAction
	width         int
	height        int
	showAll       bool
}

// New creates a new board Model with the given container.
func New(c *app.Container) *Model {
	styles := DefaultStyles()
	taskList := list.New([]list.Item{}, newTaskDelegate(styles), 0, 0)
	taskList.SetShowTitle(false)
	taskList.SetShowStatusBar(false)
	taskList.SetShowHelp(false)
	taskList.SetFilteringEnabled(false)
	taskList.DisableQuitKeybindings()

	return &Model{
		container: c,
		mode:      ModeNormal,
		keys:      DefaultKeyMap(),
		styles:    styles,
		help:      help.New(),
		taskList:  taskList,
	}
}

// Run starts the board and blocks until the user quits.
func Run(c *app.Container) error {
	m := New(c)
	if dir := c.AppConfig.Tasks.Dir; dir != "" {
		if err := os.MkdirAll(dir, 0o750); err == nil {
			if w, err := newTaskWatcher(dir); err == nil {
				m.watcher = w
				defer func() { _ = w.Close() }()
			} else {
				c.Logger.Warn("task watcher disabled", "dir", dir, "error", err)
			}
		}
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run board: %w", err)
	}
	return nil
}

// Init initializes the model and returns the initial command.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadTasks()}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.wait())
	}
	return tea.Batch(cmds...)
}

// loadTasks returns a command that loads tasks from the repository.
func (m *Model) loadTasks() tea.Cmd {
	showAll := m.showAll
	return func() tea.Msg {
		out, err := m.container.ListTasksUseCase().Execute(context.Background(), usecase.ListTasksInput{
			IncludeClosed: showAll,
		})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgTasksLoaded{Tasks: out.Tasks}
	}
}

// applyTask returns a command that applies the task's change.
func (m *Model) applyTask(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.ApplyChangeUseCase().Execute(context.Background(), usecase.ApplyChangeInput{TaskID: id})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgTaskApplied{Output: out}
	}
}

// testTask returns a command that runs the tests for the task.
func (m *Model) testTask(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.RunTestsUseCase().Execute(context.Background(), usecase.RunTestsInput{TaskID: id})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgTestsRun{Output: out}
	}
}

// closeTask returns a command that closes the task.
func (m *Model) closeTask(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.CloseTaskUseCase().Execute(context.Background(), usecase.CloseTaskInput{
			TaskID: id,
			Reason: "closed from board",
		})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgTaskClosed{TaskID: out.Task.ID}
	}
}

// SelectedTask returns the currently selected task, or nil if none.
func (m *Model) SelectedTask() *domain.Task {
	if ti, ok := m.taskList.SelectedItem().(taskItem); ok {
		return ti.task
	}
	return nil
}

// statusOrder groups the board by how much attention a task needs.
var statusOrder = map[domain.Status]int{
	domain.StatusTestsFailed: 0,
	domain.StatusCodeApplied: 1,
	domain.StatusOpen:        2,
	domain.StatusTestsPassed: 3,
	domain.StatusClosed:      4,
}

// sortedTasks returns tasks grouped by status, newest first within a group.
func (m *Model) sortedTasks() []*domain.Task {
	sorted := make([]*domain.Task, len(m.tasks))
	copy(sorted, m.tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, oj := statusOrder[sorted[i].Status], statusOrder[sorted[j].Status]
		if oi != oj {
			return oi < oj
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// updateTaskList updates the task list items from tasks, keeping the
// selection on the same task when it is still listed.
func (m *Model) updateTaskList() {
	var selectedID string
	if task := m.SelectedTask(); task != nil {
		selectedID = task.ID
	}

	sorted := m.sortedTasks()
	items := make([]list.Item, 0, len(sorted))
	selected := -1
	for i, task := range sorted {
		items = append(items, taskItem{task: task})
		if task.ID == selectedID {
			selected = i
		}
	}
	m.taskList.SetItems(items)
	if selected >= 0 {
		m.taskList.Select(selected)
	}
}

// updateLayoutSizes resizes the list and viewport to the window.
func (m *Model) updateLayoutSizes() {
	listHeight := m.height - 8
	if listHeight < 3 {
		listHeight = 3
	}
	m.taskList.SetSize(m.width-4, listHeight)
	if m.mode == ModeDetail {
		m.initDetailViewport()
	}
}

func (m *Model) initDetailViewport() {
	width := m.width - 8
	height := m.height - 6
	if width < 40 {
		width = 40
	}
	if height < 10 {
		height = 10
	}
	m.detailViewport = viewport.New(width, height)
	m.detailViewport.SetContent(m.detailContent(width))
}

func (m *Model) detailContent(width int) string {
	task := m.SelectedTask()
	if task == nil {
		return "No task selected"
	}

	wrap := lipgloss.NewStyle().Width(width)
	row := func(label, value string) string {
		return m.styles.DetailLabel.Render(label) + m.styles.DetailValue.Render(value)
	}

	lines := []string{
		m.styles.DetailTitle.Render("Task " + task.ID),
		wrap.Render(task.Title),
		"",
		row("Status", m.styles.StatusStyle(task.Status).Render(task.Status.Display())),
		row("Priority", task.Priority),
		row("Type", task.Type),
		row("Source", task.Source),
		row("Target", strings.TrimSpace(task.TargetRepo+" "+task.TargetBranch)),
	}
	if task.BranchName != "" {
		lines = append(lines, row("Branch", task.BranchName))
	}
	if task.LastCommit != "" {
		lines = append(lines, row("Commit", task.LastCommit))
	}
	if task.LastTestStatus != "" {
		lines = append(lines, row("Last test", task.LastTestStatus))
	}
	lines = append(lines, row("Created", task.CreatedAt.Local().Format("2006-01-02 15:04")))

	if task.Description != "" {
		lines = append(lines, m.styles.DetailDesc.Render(wrap.Render(task.Description)))
	}

	lines = append(lines, "", m.styles.DetailTitle.Render("Affected files"))
	for _, f := range task.AffectedFiles {
		lines = append(lines, "  "+f)
	}

	if len(task.AcceptanceCriteria) > 0 {
		lines = append(lines, "", m.styles.DetailTitle.Render("Acceptance criteria"))
		for _, c := range task.AcceptanceCriteria {
			lines = append(lines, wrap.Render("  - "+c))
		}
	}

	lines = append(lines, "", m.styles.DetailTitle.Render("Timeline"))
	for _, e := range task.Timeline {
		lines = append(lines, fmt.Sprintf("  %s  %s", e.At.Local().Format("01-02 15:04"), e.Label))
	}

	return strings.Join(lines, "\n")
}
