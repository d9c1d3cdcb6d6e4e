package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	primary     = lipgloss.Color("#2196F3")
	muted       = lipgloss.Color("#7a8599")
	destructive = lipgloss.Color("#e53935")
)

type Styles struct {
	Header  lipgloss.Style
	User    lipgloss.Style
	Bot     lipgloss.Style
	System  lipgloss.Style
	Error   lipgloss.Style
	Footer  lipgloss.Style
	Prompt  lipgloss.Style
	Spinner lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1),
		User:    lipgloss.NewStyle().Bold(true).Foreground(primary),
		Bot:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		System:  lipgloss.NewStyle().Italic(true).Foreground(muted),
		Error:   lipgloss.NewStyle().Foreground(destructive),
		Footer:  lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		Prompt:  lipgloss.NewStyle().Foreground(accent),
		Spinner: lipgloss.NewStyle().Foreground(accent),
	}
}
