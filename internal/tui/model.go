// Package tui renders a chat session in the terminal with bubbletea.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhouzirui/laptop-support/internal/model/chat"
	chatservice "github.com/zhouzirui/laptop-support/internal/service/chat"
)

const (
	headerHeight = 2
	footerHeight = 4
)

// stateMsg carries a session state published after a change.
type stateMsg chat.State

// settledMsg is delivered when an exchange started from the input settles.
type settledMsg struct {
	outcome chatservice.Outcome
}

// Model is the bubbletea model for the chat view. It keeps no conversation
// state of its own beyond the last snapshot it rendered.
type Model struct {
	session *chatservice.Session
	updates <-chan chat.State

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   Styles

	state  chat.State
	width  int
	height int
}

// NewModel subscribes to session. Call Close when the program exits.
func NewModel(session *chatservice.Session) (Model, func()) {
	input := textinput.New()
	input.Placeholder = "Ask a question..."
	input.Prompt = "> "
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	updates, cancel := session.Subscribe()
	state := session.Snapshot()
	input.SetValue(state.PendingQuery)

	m := Model{
		session:  session,
		updates:  updates,
		input:    input,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		styles:   DefaultStyles(),
		state:    state,
	}
	return m, cancel
}

// Init starts the cursor blink, the spinner and the state listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForState(m.updates))
}

func waitForState(updates <-chan chat.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return nil
		}
		return stateMsg(state)
	}
}

// Update handles keys, window resizes and session changes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateMsg:
		m.state = chat.State(msg)
		m.refreshViewport()
		return m, waitForState(m.updates)

	case settledMsg:
		// the session decides whether the input survives the exchange
		m.state = m.session.Snapshot()
		m.input.SetValue(m.state.PendingQuery)
		m.input.CursorEnd()
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyTab:
		next := m.state.SelectedContext.Next()
		_ = m.session.SelectContext(next)
		m.state = m.session.Snapshot()
		return m, nil

	case tea.KeyEnter:
		cmd := m.submit()
		return m, cmd

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.SetPendingQuery(m.input.Value())
	m.state = m.session.Snapshot()
	return m, cmd
}

// submit dispatches the pending query; the round trip runs as a command.
func (m *Model) submit() tea.Cmd {
	m.session.SetPendingQuery(m.input.Value())
	exchange, _ := m.session.DispatchPending()
	m.state = m.session.Snapshot()
	m.refreshViewport()
	if exchange == nil {
		return nil
	}
	return func() tea.Msg {
		return settledMsg{outcome: exchange.Await(context.Background())}
	}
}

func (m *Model) resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	m.width, m.height = width, height

	vpHeight := height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = max(width-4, 0)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}
