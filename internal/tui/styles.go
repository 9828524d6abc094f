package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors keep code listings readable on light terminals.
var (
	accent  = lipgloss.AdaptiveColor{Light: "#0B6E99", Dark: "#4FC1E9"}
	muted   = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	fgColor = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#E4E4E4"}
	okColor = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#8BD17C"}
	bad     = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6B6B"}
	caution = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#F5C04A"}
	barBg   = lipgloss.AdaptiveColor{Light: "#E0E6EA", Dark: "#1E2A32"}
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	subtitleStyle = lipgloss.NewStyle().Italic(true).Foreground(muted)
	dimStyle      = lipgloss.NewStyle().Foreground(muted)
	helpStyle     = dimStyle

	successStyle = lipgloss.NewStyle().Foreground(okColor)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(bad)
	warnStyle    = lipgloss.NewStyle().Foreground(caution)

	// Picker rows.
	listItemStyle = lipgloss.NewStyle().Foreground(fgColor)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)

	// Console: echoed command lines get a left rule, plain results none.
	commandStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(accent).
			PaddingLeft(1)
	resultStyle = lipgloss.NewStyle().Foreground(fgColor).PaddingLeft(2)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Background(barBg).
			Padding(0, 1)
)
