package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/laptop-support/internal/model/chat"
)

const title = "Laptop Support Chatbot"

// View renders header, transcript and input.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.renderContexts())
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m Model) renderHistory() string {
	var sb strings.Builder
	width := m.bubbleWidth()

	for _, msg := range m.state.History {
		sb.WriteString(m.renderMessage(msg, width))
		sb.WriteString("\n\n")
	}
	if m.state.AwaitingResponse {
		sb.WriteString(m.styles.Muted.Render(m.spinner.View() + " Generating response..."))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderMessage(msg chat.Message, width int) string {
	tag := m.styles.Tag.Render("Context: " + msg.Context)

	if msg.Kind == chat.KindUser {
		block := lipgloss.JoinVertical(lipgloss.Right,
			m.styles.UserLabel.Render("You"),
			m.styles.UserText.Width(width).Render(msg.Text),
			tag)
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, block)
	}

	textStyle := m.styles.BotText
	if msg.Context == chat.ErrorContext {
		textStyle = m.styles.ErrorText
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.BotLabel.Render("Support"),
		textStyle.Width(width).Render(msg.Text),
		tag)
}

func (m Model) renderContexts() string {
	parts := make([]string, 0, len(chat.Options()))
	for _, opt := range chat.Options() {
		if opt.Value == m.state.SelectedContext {
			parts = append(parts, m.styles.Selected.Render(opt.Label))
			continue
		}
		parts = append(parts, m.styles.Muted.Render(opt.Label))
	}
	return m.styles.Muted.Render("Context: ") + strings.Join(parts, m.styles.Muted.Render(" | "))
}

func (m Model) renderFooter() string {
	send := "enter send"
	if m.state.AwaitingResponse {
		send = "waiting for reply"
	}
	return m.styles.Footer.Render(send + " • tab context • pgup/pgdn scroll • esc quit")
}

// bubbleWidth keeps messages to 80% of the viewport.
func (m Model) bubbleWidth() int {
	w := m.viewport.Width * 4 / 5
	if w < 10 {
		w = 10
	}
	return w
}
