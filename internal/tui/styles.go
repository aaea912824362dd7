package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#06B6D4")
	colorMuted  = lipgloss.Color("#6C7086")
	colorError  = lipgloss.Color("#F38BA8")
	colorOK     = lipgloss.Color("#A6E3A1")
)

// Styles are the lipgloss styles the chat view renders with.
type Styles struct {
	Title    lipgloss.Style
	Question lipgloss.Style
	Answer   lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Input    lipgloss.Style
}

func DefaultStyles() *Styles {
	return &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1),
		Question: lipgloss.NewStyle().Bold(true),
		Answer:   lipgloss.NewStyle().PaddingLeft(2),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Error:    lipgloss.NewStyle().Foreground(colorError),
		Success:  lipgloss.NewStyle().Bold(true).Foreground(colorOK),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1),
	}
}
