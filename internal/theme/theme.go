package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme captures the lipgloss styles used across the TUI.
type Theme struct {
	Title       lipgloss.Style
	Cursor      lipgloss.Style
	Normal      lipgloss.Style
	Dim         lipgloss.Style
	Description lipgloss.Style
	Date        lipgloss.Style
	Player      lipgloss.Style
	Pending     lipgloss.Style
	Done        lipgloss.Style
	Failed      lipgloss.Style
	Error       lipgloss.Style
	Popup       lipgloss.Style
}

// Default is the canonical name of the built-in default theme.
const Default = "default"

var themes = map[string]Theme{
	Default: {
		Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Cursor:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Normal:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Description: lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Italic(true),
		Date:        lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		Player:      lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		Pending:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Done:        lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		Failed:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Popup:       lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Padding(0, 1),
	},
	"high_contrast": {
		Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Cursor:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Normal:      lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		Description: lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Italic(true),
		Date:        lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Player:      lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		Pending:     lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		Done:        lipgloss.NewStyle().Foreground(lipgloss.Color("118")).Bold(true),
		Failed:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Popup:       lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).Padding(0, 1),
	},
}

// Names returns the sorted list of available theme names.
func Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForName returns the theme with the provided name, defaulting if unknown.
func ForName(name string) Theme {
	key := strings.ToLower(strings.TrimSpace(name))
	if theme, ok := themes[key]; ok {
		return theme
	}
	return themes[Default]
}
