// Package tui provides an interactive terminal user interface for cage.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette - matches existing CLI colors
var (
	ColorPrimary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Yellow
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#6B7280") // Gray
	ColorText    = lipgloss.Color("#F3F4F6") // Light gray
)

// Styles contains all the lipgloss styles used in the TUI
type Styles struct {
	// App frame
	Header    lipgloss.Style
	Footer    lipgloss.Style
	StatusBar lipgloss.Style

	// Tabs
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	// Content
	Title lipgloss.Style

	// List items
	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style

	// Session display
	ProfileName   lipgloss.Style
	StatusRunning lipgloss.Style
	StatusStopped lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Help
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style
}

// DefaultStyles returns the default style configuration
func DefaultStyles() *Styles {
	s := &Styles{}

	s.Header = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1)

	s.Footer = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Padding(0, 1)

	s.StatusBar = lipgloss.NewStyle().
		Foreground(ColorText).
		Padding(0, 1)

	s.TabActive = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Underline(true).
		Padding(0, 1)

	s.TabInactive = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Padding(0, 1)

	s.Title = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)

	s.ListItem = lipgloss.NewStyle().
		Foreground(ColorText).
		Padding(0, 2)

	s.ListItemSelected = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0).
		SetString("> ")

	s.ProfileName = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)

	s.StatusRunning = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	s.StatusStopped = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.Success = lipgloss.NewStyle().Foreground(ColorSuccess)
	s.Warning = lipgloss.NewStyle().Foreground(ColorWarning)
	s.Error = lipgloss.NewStyle().Foreground(ColorError)

	s.HelpKey = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	s.HelpDesc = lipgloss.NewStyle().
		Foreground(ColorMuted)

	return s
}
