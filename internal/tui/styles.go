package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorBorder  = lipgloss.Color("#374151")

	// Base styles
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// Urgency indicators
	styleCalm = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	styleSoon = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	styleCritical = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	// Table styles
	styleTableHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorPrimary).
				Padding(0, 1)

	styleTableRow = lipgloss.NewStyle().
			Padding(0, 1)

	styleTableRowSelected = lipgloss.NewStyle().
				Background(lipgloss.Color("#1F2937")).
				Foreground(lipgloss.Color("#FFFFFF")).
				Padding(0, 1)

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)
)

// UrgencyIcon returns a colored urgency indicator.
func UrgencyIcon(urgency Urgency) string {
	switch urgency {
	case UrgencyOverdue:
		return styleCritical.Render("! Overdue")
	case UrgencyCritical:
		return styleCritical.Render("● <2h")
	case UrgencySoon:
		return styleSoon.Render("◐ <24h")
	case UrgencyCalm:
		return styleCalm.Render("○ OK")
	case UrgencyClosed:
		return styleMuted().Render("· Closed")
	default:
		return styleMuted().Render("?")
	}
}

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMuted)
}
