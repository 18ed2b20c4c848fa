package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Cell    lipgloss.Style
	Key     lipgloss.Style
}

// DefaultStyles returns the styles for a color terminal.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Bold:    lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Cell:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).PaddingRight(1),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:  plain,
		Bold:    plain,
		Muted:   plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Cell:    plain,
		Key:     plain,
	}
}
