package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/runoshun/git-pilot/internal/domain"
)

// shortIDLength is how many characters of a task ID the board shows.
const shortIDLength = 8

type taskItem struct {
	task *domain.Task
}

func (t taskItem) FilterValue() string {
	return t.task.Title
}

// escapeNewlines replaces newline characters with spaces for single-line display.
func escapeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

// fit truncates s to width cells and pads it to exactly width.
func fit(s string, width int) string {
	if width < 10 {
		width = 10
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}

// taskSummary is the second line of a list row: branch, files and last test.
func taskSummary(task *domain.Task) string {
	var parts []string
	if task.BranchName != "" {
		parts = append(parts, task.BranchName)
	}
	switch n := len(task.AffectedFiles); n {
	case 0:
		parts = append(parts, "no files")
	case 1:
		parts = append(parts, task.AffectedFiles[0])
	default:
		parts = append(parts, fmt.Sprintf("%s +%d", task.AffectedFiles[0], n-1))
	}
	if task.LastTestStatus != "" {
		parts = append(parts, "tests "+task.LastTestStatus)
	}
	return strings.Join(parts, " · ")
}

type taskDelegate struct {
	styles Styles
}

func newTaskDelegate(styles Styles) taskDelegate {
	return taskDelegate{styles: styles}
}

func (d taskDelegate) Height() int {
	return 2
}

func (d taskDelegate) Spacing() int {
	return 1
}

func (d taskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// prefixWidth is the width of "  > xxxxxxxx  ○ applied  high    ".
const prefixWidth = 2 + 1 + 1 + shortIDLength + 2 + 1 + 1 + 7 + 2 + 6 + 2

func (d taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(taskItem)
	if !ok {
		return
	}
	task := ti.task
	selected := index == m.Index()

	indicatorChar := " "
	if selected {
		indicatorChar = ">"
	}

	listWidth := m.Width()
	title := fit(escapeNewlines(task.Title), listWidth-prefixWidth-2)
	statusStyle := d.styles.StatusStyle(task.Status)

	indicator := d.styles.SelectionIndicator.Bold(selected).Render(indicatorChar)
	idPart := d.styles.TaskID.Bold(selected).Render(fmt.Sprintf("%-*s", shortIDLength, shortID(task.ID)))
	iconPart := statusStyle.Bold(selected).Render(StatusIcon(task.Status))
	textPart := statusStyle.Bold(selected).Render(fmt.Sprintf("%-7s", StatusText(task.Status)))
	priorityPart := d.styles.TaskPriority.Render(fmt.Sprintf("%-6s", task.Priority))
	titlePart := d.styles.TaskTitle.Bold(selected).Render(title)

	line := "  " + indicator + " " + idPart + "  " + iconPart + " " + textPart + "  " + priorityPart + "  " + titlePart
	_, _ = fmt.Fprintln(w, line)

	descLine := strings.Repeat(" ", prefixWidth) + fit(taskSummary(task), listWidth-prefixWidth-2)
	_, _ = fmt.Fprint(w, d.styles.TaskDesc.Render(descLine))
}
