package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the board.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.mode {
	case ModeHelp:
		content = m.viewHelp()
	case ModeDetail:
		content = m.viewDetail()
	case ModeNormal, ModeConfirm:
		content = m.viewMain()
	}

	return m.styles.App.Render(content)
}

// viewMain renders the task list with its header, dialog and footer.
func (m *Model) viewMain() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	if len(m.tasks) == 0 {
		b.WriteString(m.viewEmptyState())
	} else {
		b.WriteString(m.taskList.View())
	}
	b.WriteString("\n")

	if m.mode == ModeConfirm {
		b.WriteString(m.viewConfirmDialog())
		b.WriteString("\n")
	}

	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))

	return b.String()
}

// viewHeader renders the title with the repository and task count.
func (m *Model) viewHeader() string {
	title := "git-pilot"
	if cfg := m.container.AppConfig; cfg != nil && cfg.Repo.URL != "" {
		title += "  " + cfg.Repo.URL + "@" + cfg.Repo.Branch
	}

	scope := "open"
	if m.showAll {
		scope = "all"
	}
	countText := m.styles.HeaderText.Render(fmt.Sprintf("%d %s tasks", len(m.tasks), scope))

	headerWidth := m.width - 6
	if headerWidth < 40 {
		headerWidth = 40
	}
	spacing := headerWidth - lipgloss.Width(title) - lipgloss.Width(countText)
	if spacing < 1 {
		spacing = 1
	}

	return m.styles.Header.Render(title + strings.Repeat(" ", spacing) + countText)
}

func (m *Model) viewEmptyState() string {
	msg := "No open tasks. Create one with `pilot new` or POST /tasks."
	if m.showAll {
		msg = "No tasks yet. Create one with `pilot new` or POST /tasks."
	}
	return m.styles.TaskDesc.Render(msg) + "\n"
}

// viewStatus renders the error, the running action or the last outcome.
func (m *Model) viewStatus() string {
	switch {
	case m.err != nil:
		return m.styles.ErrorMsg.Render("Error: " + m.err.Error())
	case m.busy != "":
		return m.styles.Busy.Render(m.busy)
	case m.notice != "":
		return m.styles.Notice.Render(m.notice)
	}
	return ""
}

func (m *Model) viewConfirmDialog() string {
	title := m.styles.DialogTitle.Render(fmt.Sprintf("%s task %s?", capitalize(m.confirmAction.String()), shortID(m.confirmTaskID)))

	var prompt string
	switch m.confirmAction {
	case ConfirmApply:
		prompt = "Generate the affected files, commit and push the task branch."
	case ConfirmClose:
		prompt = "The task will accept no further changes. The branch is kept."
	case ConfirmNone:
	}

	return m.styles.Dialog.Render(title + "\n\n" + prompt + "\n\n" + m.styles.Footer.Render("y confirm · n cancel"))
}

func (m *Model) viewHelp() string {
	title := m.styles.DialogTitle.Render("Keyboard shortcuts")
	body := m.help.FullHelpView(m.keys.FullHelp())
	return m.styles.Help.Render(title + "\n\n" + body + "\n\n" + m.styles.Footer.Render("esc close"))
}

func (m *Model) viewDetail() string {
	return m.detailViewport.View() + "\n" + m.styles.Footer.Render("↑/↓ scroll · esc back")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
