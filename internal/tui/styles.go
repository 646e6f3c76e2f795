package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timesetor/internal/timeengine"
)

// Palette, by role.
var (
	colorBrand  = lipgloss.Color("#6C63FF")
	colorText   = lipgloss.Color("#C0CAF5")
	colorMuted  = lipgloss.Color("#666666")
	colorBorder = lipgloss.Color("#414868")
	colorError  = lipgloss.Color("#E74C3C")

	// day state
	colorAwake  = lipgloss.Color("#2ECC71")
	colorAsleep = lipgloss.Color("#F39C12")

	// activity categories
	colorFun   = lipgloss.Color("#FF6B6B")
	colorStudy = lipgloss.Color("#2EC4B6")
	colorRest  = lipgloss.Color("#7AA2F7")
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBrand).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorBrand).
			Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)
	activePanelStyle = panelStyle.
				BorderForeground(colorBrand)

	// The virtual clock readout and its day-state variants.
	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBrand).
			Align(lipgloss.Center)
	clockAwakeStyle  = clockStyle.Foreground(colorAwake)
	clockAsleepStyle = clockStyle.Foreground(colorAsleep)

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	accentStyle    = lipgloss.NewStyle().Foreground(colorFun)
	successStyle   = lipgloss.NewStyle().Foreground(colorAwake)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorRest)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)
	normalItemStyle   = lipgloss.NewStyle().Foreground(colorText)
)

// activityColor is the color used for an activity across views. Breaks
// and sleep share the rest color.
func activityColor(a timeengine.Activity) lipgloss.Color {
	switch timeengine.Category(a) {
	case timeengine.ActivityEntertainment:
		return colorFun
	case timeengine.ActivityStudy:
		return colorStudy
	default:
		return colorRest
	}
}
