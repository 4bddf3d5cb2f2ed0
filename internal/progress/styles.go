package progress

import "github.com/charmbracelet/lipgloss"

var (
	// Title of the bar view
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00BCD4"))

	// Status style for per-file lines
	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#959595"))

	// Renamed files are highlighted
	RenamedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D08770"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))
)
