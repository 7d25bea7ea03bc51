package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used to render the chat.
type Styles struct {
	Header    lipgloss.Style
	UserLabel lipgloss.Style
	UserText  lipgloss.Style
	BotLabel  lipgloss.Style
	BotText   lipgloss.Style
	ErrorText lipgloss.Style
	Tag       lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Footer    lipgloss.Style
}

// DefaultStyles mirrors the blue/grey palette of the web page.
func DefaultStyles() Styles {
	blue := lipgloss.Color("#3B82F6")
	grey := lipgloss.Color("#6B7280")

	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(blue).Padding(0, 1),
		UserLabel: lipgloss.NewStyle().Bold(true).Foreground(blue),
		UserText:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(blue).Padding(0, 1),
		BotLabel:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")),
		BotText:   lipgloss.NewStyle().Foreground(lipgloss.Color("#111827")).Background(lipgloss.Color("#E5E7EB")).Padding(0, 1),
		ErrorText: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#DC2626")).Padding(0, 1),
		Tag:       lipgloss.NewStyle().Foreground(grey).Italic(true),
		Muted:     lipgloss.NewStyle().Foreground(grey),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(blue).Underline(true),
		Footer:    lipgloss.NewStyle().Foreground(grey),
	}
}
