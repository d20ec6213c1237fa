package ui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the shell and the editor.
type Styles struct {
	Button      lipgloss.Style
	Placard     lipgloss.Style
	Panel       lipgloss.Style
	Title       lipgloss.Style
	Label       lipgloss.Style
	ActiveLabel lipgloss.Style
	Value       lipgloss.Style
	Hint        lipgloss.Style
	Error       lipgloss.Style
}

func defaultStyles() Styles {
	accent := lipgloss.Color("#7aa2f7")
	muted := lipgloss.Color("#565f89")
	text := lipgloss.Color("#c0caf5")

	return Styles{
		Button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1a1b26")).
			Background(accent).
			Bold(true).
			Padding(0, 1),

		Placard: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			MarginBottom(1),

		Label: lipgloss.NewStyle().
			Foreground(muted).
			Width(12),

		ActiveLabel: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Width(12),

		Value: lipgloss.NewStyle().
			Foreground(text),

		Hint: lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true),
	}
}
