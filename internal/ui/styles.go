package ui

import "github.com/charmbracelet/lipgloss"

// Styles are only applied when writing to a terminal; bars and menus that
// read riceify's stdout through a pipe always get plain text.
var (
	// Accent highlights the current rice.
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// Muted is used for empty-state and aborted messages.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)
