package lipgloss

import "github.com/charmbracelet/lipgloss"

var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F04C56"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#47D18C"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EABE4E"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF"))
	Gray    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	Info    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	ErrorBoxStyle = BoxStyle.BorderForeground(lipgloss.Color("#F04C56"))
)
