// Package style defines lipgloss styles for the TUI.
package style

import "github.com/charmbracelet/lipgloss"

// Styles are package-level values; lipgloss styles are immutable values and
// safe to share. Names omit a "Style" suffix since callers write style.Title.
var (
	// Title is used for the app header and section titles.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	// Subtitle is used for secondary text.
	Subtitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	// Question is the prompt the user is answering.
	Question = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	// Recording marks the live recording indicator.
	Recording = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	// Success is used for success messages.
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	// Error is used for error messages.
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	// Plan frames the streamed workout text.
	Plan = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	// Help is used for keyboard shortcut hints.
	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	// Key is used for highlighting keyboard keys.
	Key = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	// Meter colors the input level bars.
	Meter = lipgloss.NewStyle().
		Foreground(lipgloss.Color("63"))

	// Label is used for answer labels (e.g., "Time:").
	Label = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255"))

	// Muted is used for de-emphasized text and empty answers.
	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))
)
