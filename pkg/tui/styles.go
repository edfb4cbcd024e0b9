package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/tasks/pkg/model"
)

// Color palette
var (
	colorPrimary = lipgloss.Color("#6C63FF")
	colorMuted   = lipgloss.Color("#666666")
	colorWarning = lipgloss.Color("#F39C12")
	colorError   = lipgloss.Color("#E74C3C")
	colorFg      = lipgloss.Color("#C0CAF5")
	colorSubtle  = lipgloss.Color("#414868")
)

// windowColors gives each window its accent.
var windowColors = map[model.Window]lipgloss.Color{
	model.Today:    lipgloss.Color("#B13D3D"),
	model.Tomorrow: lipgloss.Color("#C9742E"),
	model.Week:     lipgloss.Color("#15721E"),
	model.Month:    lipgloss.Color("#1631B5"),
}

func accent(w model.Window) lipgloss.Color {
	if c, ok := windowColors[w]; ok {
		return c
	}
	return colorPrimary
}

var (
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	doneStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Strikethrough(true)

	overdueStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)
)

func activeTabStyle(w model.Window) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(accent(w)).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(accent(w)).
		Padding(0, 2)
}
