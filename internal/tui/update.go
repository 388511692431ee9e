package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/git-pilot/internal/domain"
)

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateLayoutSizes()
		return m, nil

	case MsgTasksLoaded:
		m.tasks = msg.Tasks
		m.updateTaskList()
		if m.mode == ModeDetail {
			m.detailViewport.SetContent(m.detailContent(m.detailViewport.Width))
		}
		return m, nil

	case MsgTasksChanged:
		// Keep listening for the next change.
		cmds := []tea.Cmd{m.loadTasks()}
		if m.watcher != nil {
			cmds = append(cmds, m.watcher.wait())
		}
		return m, tea.Batch(cmds...)

	case MsgTaskApplied:
		m.busy = ""
		out := msg.Output
		if out.Committed {
			m.notice = fmt.Sprintf("Committed %s on %s", shortID(out.Commit), out.Branch)
		} else {
			m.notice = fmt.Sprintf("Nothing to commit on %s", out.Branch)
		}
		return m, m.loadTasks()

	case MsgTestsRun:
		m.busy = ""
		out := msg.Output
		if out.Result.Passed() {
			m.notice = fmt.Sprintf("Tests passed for %s", shortID(out.Task.ID))
		} else {
			m.err = fmt.Errorf("tests failed for %s: exit code %d", shortID(out.Task.ID), out.Result.ExitCode)
		}
		return m, m.loadTasks()

	case MsgTaskClosed:
		m.busy = ""
		m.notice = fmt.Sprintf("Closed %s", shortID(msg.TaskID))
		return m, m.loadTasks()

	case MsgError:
		m.busy = ""
		m.err = msg.Err
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		return m, nil
	}

	return m, nil
}

// handleKeyMsg handles keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Clear messages on any key press
	m.err = nil
	m.notice = ""

	switch m.mode {
	case ModeNormal:
		return m.handleNormalMode(msg)
	case ModeConfirm:
		return m.handleConfirmMode(msg)
	case ModeHelp:
		return m.handleHelpMode(msg)
	case ModeDetail:
		return m.handleDetailMode(msg)
	}

	return m, nil
}

// handleNormalMode handles keys in normal mode.
func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadTasks()

	case key.Matches(msg, m.keys.ToggleShowAll):
		m.showAll = !m.showAll
		return m, m.loadTasks()
	}

	task := m.SelectedTask()
	if task == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Detail):
		m.mode = ModeDetail
		m.initDetailViewport()
		return m, nil

	case key.Matches(msg, m.keys.Apply):
		if m.busy != "" {
			return m, nil
		}
		if err := task.CheckApplicable(); err != nil {
			m.err = err
			return m, nil
		}
		m.askConfirm(ConfirmApply, task)
		return m, nil

	case key.Matches(msg, m.keys.Test):
		if m.busy != "" {
			return m, nil
		}
		if err := task.CheckTestable(); err != nil {
			m.err = err
			return m, nil
		}
		m.busy = fmt.Sprintf("Running tests for %s...", shortID(task.ID))
		return m, m.testTask(task.ID)

	case key.Matches(msg, m.keys.Close):
		if task.IsClosed() {
			m.err = domain.ErrTaskClosed
			return m, nil
		}
		m.askConfirm(ConfirmClose, task)
		return m, nil
	}

	// Navigation is handled by the list.
	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

func (m *Model) askConfirm(action ConfirmAction, task *domain.Task) {
	m.mode = ModeConfirm
	m.confirmAction = action
	m.confirmTaskID = task.ID
}

// handleConfirmMode handles keys in confirm mode.
func (m *Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), msg.String() == "n", msg.String() == "N":
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		action, id := m.confirmAction, m.confirmTaskID
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		switch action {
		case ConfirmNone:
			// Nothing to confirm
		case ConfirmApply:
			m.busy = fmt.Sprintf("Applying %s...", shortID(id))
			return m, m.applyTask(id)
		case ConfirmClose:
			return m, m.closeTask(id)
		}
	}

	return m, nil
}

// handleHelpMode handles keys in help mode.
func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape, m.keys.Help, m.keys.Quit) {
		m.mode = ModeNormal
	}
	return m, nil
}

// handleDetailMode handles keys in detail view mode.
func (m *Model) handleDetailMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape, m.keys.Detail, m.keys.Quit) {
		m.mode = ModeNormal
		return m, nil
	}
	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}
