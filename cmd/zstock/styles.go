package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)

	// StatusStyle for transient status lines.
	StatusStyle = lipgloss.NewStyle().Faint(true).Italic(true)

	// PanelStyle frames the hover info panel.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

// FormatPercent renders a same-bar change with its direction arrow.
func FormatPercent(pct float64) string {
	s := fmt.Sprintf("%+.2f%%", pct*100)

	switch {
	case pct > 0:
		return s + " ▲"
	case pct < 0:
		return s + " ▼"
	default:
		return s
	}
}
