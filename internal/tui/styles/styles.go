// Package styles defines shared lipgloss styles for the board TUI.
package styles

import (
	"github.com/TWRT/buildtrack/internal/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#5FAFAF")
	secondaryColor = lipgloss.Color("#666666")
	errorColor     = lipgloss.Color("#AF5F5F")

	statusColors = map[models.Status]lipgloss.Color{
		models.StatusNotStarted: lipgloss.Color("#8A8A8A"),
		models.StatusInProgress: lipgloss.Color("#5F87AF"),
		models.StatusOnHold:     lipgloss.Color("#D7AF5F"),
		models.StatusCompleted:  lipgloss.Color("#87AF87"),
		models.StatusCancelled:  lipgloss.Color("#AF5F5F"),
	}

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	ColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(errorColor).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			MarginTop(1)
)

// StatusHeader styles a column header in the status colour.
func StatusHeader(status models.Status) lipgloss.Style {
	color, ok := statusColors[status]
	if !ok {
		color = secondaryColor
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color)
}
