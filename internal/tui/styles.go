package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#DC2626") // red
	colorSecondary = lipgloss.Color("#F59E0B") // amber
	colorSuccess   = lipgloss.Color("#22C55E") // green
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorText      = lipgloss.Color("#E5E7EB")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	queryStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	chipStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(lipgloss.Color("#374151")).
			Padding(0, 1).
			MarginRight(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	currentPageStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	mapBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)
)
