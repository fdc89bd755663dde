package tui

import (
	"charm.land/lipgloss/v2"
)

// Color palette — muted clinical blues with clear pass/fail accents
var (
	colPrimary = lipgloss.Color("#3B82F6") // Blue
	colSuccess = lipgloss.Color("#22C55E") // Green
	colError   = lipgloss.Color("#F43F5E") // Rose
	colWarn    = lipgloss.Color("#F59E0B") // Amber
	colText    = lipgloss.Color("#F8FAFC") // White
	colTextDim = lipgloss.Color("#94A3B8") // Slate
	colBorder  = lipgloss.Color("#334155") // Slate
)

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colPrimary)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colTextDim)

	styleBody = lipgloss.NewStyle().
			Foreground(colText)

	styleHint = lipgloss.NewStyle().
			Foreground(colTextDim).
			Italic(true)

	styleSelected = lipgloss.NewStyle().
			Foreground(colPrimary).
			Bold(true)

	styleCorrect = lipgloss.NewStyle().
			Foreground(colSuccess).
			Bold(true)

	styleIncorrect = lipgloss.NewStyle().
			Foreground(colError).
			Bold(true)

	styleWarn = lipgloss.NewStyle().
			Foreground(colWarn).
			Bold(true)

	styleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colBorder).
			Padding(1, 2)
)
