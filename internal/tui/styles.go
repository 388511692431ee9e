package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/git-pilot/internal/domain"
)

// Colors defines the color palette for the board.
var Colors = struct {
	// Base colors
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Error      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Background lipgloss.Color

	// Title/text colors
	TitleNormal   lipgloss.Color
	TitleSelected lipgloss.Color
	DescNormal    lipgloss.Color

	// Status colors
	Open        lipgloss.Color
	CodeApplied lipgloss.Color
	TestsPassed lipgloss.Color
	TestsFailed lipgloss.Color
	Closed      lipgloss.Color
}{
	Primary:    lipgloss.Color("#6C5CE7"), // Purple
	Secondary:  lipgloss.Color("#A29BFE"), // Lavender
	Muted:      lipgloss.Color("#636E72"), // Gray
	Error:      lipgloss.Color("#D63031"), // Red
	Success:    lipgloss.Color("#00B894"), // Green
	Warning:    lipgloss.Color("#FDCB6E"), // Yellow
	Background: lipgloss.Color("#2D3436"), // Dark gray

	TitleNormal:   lipgloss.Color("#DFE6E9"),
	TitleSelected: lipgloss.Color("#FFEAA7"),
	DescNormal:    lipgloss.Color("#636E72"),

	Open:        lipgloss.Color("#74B9FF"), // Light blue
	CodeApplied: lipgloss.Color("#FDCB6E"), // Yellow
	TestsPassed: lipgloss.Color("#00B894"), // Green
	TestsFailed: lipgloss.Color("#D63031"), // Red
	Closed:      lipgloss.Color("#636E72"), // Gray
}

// Styles contains all the lipgloss styles for the board.
type Styles struct {
	App lipgloss.Style

	// Header
	Header     lipgloss.Style
	HeaderText lipgloss.Style

	// Task list
	TaskID             lipgloss.Style
	TaskTitle          lipgloss.Style
	TaskDesc           lipgloss.Style
	TaskPriority       lipgloss.Style
	SelectionIndicator lipgloss.Style

	// Status badges
	StatusOpen        lipgloss.Style
	StatusCodeApplied lipgloss.Style
	StatusTestsPassed lipgloss.Style
	StatusTestsFailed lipgloss.Style
	StatusClosed      lipgloss.Style

	// Footer
	Footer lipgloss.Style
	Notice lipgloss.Style
	Busy   lipgloss.Style

	// Dialog
	Dialog      lipgloss.Style
	DialogTitle lipgloss.Style

	// Help
	Help lipgloss.Style

	// Error
	ErrorMsg lipgloss.Style

	// Detail view
	DetailTitle lipgloss.Style
	DetailLabel lipgloss.Style
	DetailValue lipgloss.Style
	DetailDesc  lipgloss.Style
}

// DefaultStyles returns the default styles for the board.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary).
			MarginBottom(1),

		HeaderText: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		TaskID: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		TaskTitle: lipgloss.NewStyle().
			Foreground(Colors.TitleNormal),

		TaskDesc: lipgloss.NewStyle().
			Foreground(Colors.DescNormal),

		TaskPriority: lipgloss.NewStyle().
			Foreground(Colors.Secondary),

		SelectionIndicator: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected),

		StatusOpen: lipgloss.NewStyle().
			Foreground(Colors.Open),

		StatusCodeApplied: lipgloss.NewStyle().
			Foreground(Colors.CodeApplied),

		StatusTestsPassed: lipgloss.NewStyle().
			Foreground(Colors.TestsPassed),

		StatusTestsFailed: lipgloss.NewStyle().
			Foreground(Colors.TestsFailed),

		StatusClosed: lipgloss.NewStyle().
			Foreground(Colors.Closed),

		Footer: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		Notice: lipgloss.NewStyle().
			Foreground(Colors.Success),

		Busy: lipgloss.NewStyle().
			Foreground(Colors.Warning).
			Italic(true),

		Dialog: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Primary),

		DialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary),

		Help: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Muted),

		ErrorMsg: lipgloss.NewStyle().
			Foreground(Colors.Error).
			Bold(true),

		DetailTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary).
			MarginBottom(1),

		DetailLabel: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Width(14),

		DetailValue: lipgloss.NewStyle(),

		DetailDesc: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			MarginTop(1),
	}
}

// StatusStyle returns the style for a given status.
func (s Styles) StatusStyle(status domain.Status) lipgloss.Style {
	switch status {
	case domain.StatusOpen:
		return s.StatusOpen
	case domain.StatusCodeApplied:
		return s.StatusCodeApplied
	case domain.StatusTestsPassed:
		return s.StatusTestsPassed
	case domain.StatusTestsFailed:
		return s.StatusTestsFailed
	case domain.StatusClosed:
		return s.StatusClosed
	default:
		return s.StatusOpen
	}
}

// StatusIcon returns an icon for a given status.
func StatusIcon(status domain.Status) string {
	switch status {
	case domain.StatusOpen:
		return "○"
	case domain.StatusCodeApplied:
		return "●"
	case domain.StatusTestsPassed:
		return "✓"
	case domain.StatusTestsFailed:
		return "✗"
	case domain.StatusClosed:
		return "−"
	default:
		return "?"
	}
}

// StatusText returns a short fixed-width label for a given status.
func StatusText(status domain.Status) string {
	switch status {
	case domain.StatusOpen:
		return "open"
	case domain.StatusCodeApplied:
		return "applied"
	case domain.StatusTestsPassed:
		return "passed"
	case domain.StatusTestsFailed:
		return "failed"
	case domain.StatusClosed:
		return "closed"
	default:
		return string(status)
	}
}
