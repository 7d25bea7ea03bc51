package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/laptop-support/internal/model/chat"
	chatservice "github.com/zhouzirui/laptop-support/internal/service/chat"
	"github.com/zhouzirui/laptop-support/internal/service/support"
)

type fakeAsker struct {
	mu    sync.Mutex
	calls []support.Request
	reply support.Reply
	err   error
}

func (f *fakeAsker) Ask(ctx context.Context, req support.Request) (support.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

func newTestModel(t *testing.T, asker chatservice.Asker) (Model, *chatservice.Session) {
	t.Helper()
	session := chatservice.NewSession(asker)
	m, cancel := NewModel(session)
	t.Cleanup(cancel)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), session
}

func typeText(m Model, text string) Model {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(Model)
}

func pressEnter(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func TestTypingUpdatesPendingQuery(t *testing.T) {
	m, session := newTestModel(t, &fakeAsker{})

	m = typeText(m, "battery")

	assert.Equal(t, "battery", m.input.Value())
	assert.Equal(t, "battery", session.Snapshot().PendingQuery)
}

func TestEnterSubmitsAndClearsOnReply(t *testing.T) {
	asker := &fakeAsker{reply: support.Reply{Response: "Up to 10 hours.", Context: "technical"}}
	m, session := newTestModel(t, asker)
	require.NoError(t, session.SelectContext(chat.ContextTechnical))

	m = typeText(m, "What's the battery life?")
	m, cmd := pressEnter(t, m)
	require.NotNil(t, cmd)
	assert.True(t, m.state.AwaitingResponse)
	assert.Contains(t, m.View(), "Generating response...")

	updated, _ := m.Update(cmd())
	m = updated.(Model)

	assert.Empty(t, m.input.Value())
	assert.False(t, m.state.AwaitingResponse)
	require.Len(t, m.state.History, 2)
	assert.Equal(t, "Up to 10 hours.", m.state.History[1].Text)
	assert.Equal(t, []support.Request{{Context: "technical", Query: "What's the battery life?"}}, asker.calls)

	view := m.View()
	assert.Contains(t, view, "Up to 10 hours.")
	assert.Contains(t, view, "Context: technical")
}

func TestEnterFailureKeepsInput(t *testing.T) {
	m, _ := newTestModel(t, &fakeAsker{err: errors.New("down")})

	m = typeText(m, "refund")
	m, cmd := pressEnter(t, m)
	require.NotNil(t, cmd)

	updated, _ := m.Update(cmd())
	m = updated.(Model)

	assert.Equal(t, "refund", m.input.Value())
	require.Len(t, m.state.History, 2)
	assert.Equal(t, chat.FallbackText, m.state.History[1].Text)
	assert.Contains(t, m.View(), "Context: error")
}

func TestEnterWithBlankInputDoesNothing(t *testing.T) {
	asker := &fakeAsker{}
	m, session := newTestModel(t, asker)

	m = typeText(m, "   ")
	_, cmd := pressEnter(t, m)

	assert.Nil(t, cmd)
	assert.Empty(t, session.Snapshot().History)
	assert.Empty(t, asker.calls)
}

func TestEnterWhileAwaitingIsIgnored(t *testing.T) {
	asker := &fakeAsker{reply: support.Reply{Response: "ok", Context: "billing"}}
	m, session := newTestModel(t, asker)

	m = typeText(m, "first")
	m, first := pressEnter(t, m)
	require.NotNil(t, first)

	m, second := pressEnter(t, m)
	assert.Nil(t, second)
	assert.Len(t, session.Snapshot().History, 1)

	updated, _ := m.Update(first())
	m = updated.(Model)
	assert.Len(t, m.state.History, 2)
	assert.Len(t, asker.calls, 1)
}

func TestTabCyclesContext(t *testing.T) {
	m, session := newTestModel(t, &fakeAsker{})
	assert.Equal(t, chat.ContextProductInquiry, m.state.SelectedContext)

	for _, want := range []chat.Context{chat.ContextTechnical, chat.ContextBilling, chat.ContextProductInquiry} {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = updated.(Model)
		assert.Equal(t, want, m.state.SelectedContext)
		assert.Equal(t, want, session.Snapshot().SelectedContext)
	}
}

func TestStateMsgRefreshesTranscript(t *testing.T) {
	m, session := newTestModel(t, &fakeAsker{reply: support.Reply{Response: "from elsewhere", Context: "billing"}})

	session.Submit(context.Background(), "remote", chat.ContextBilling)

	updated, cmd := m.Update(stateMsg(session.Snapshot()))
	m = updated.(Model)
	assert.NotNil(t, cmd)
	assert.True(t, strings.Contains(m.viewport.View(), "from elsewhere"))
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel(t, &fakeAsker{})

	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		require.NotNil(t, cmd)
		_, ok := cmd().(tea.QuitMsg)
		assert.True(t, ok)
	}
}

func TestWindowSizeClampsNegative(t *testing.T) {
	m, _ := newTestModel(t, &fakeAsker{})

	updated, _ := m.Update(tea.WindowSizeMsg{Width: -1, Height: -1})
	m = updated.(Model)

	assert.Equal(t, 0, m.width)
	assert.Equal(t, 1, m.viewport.Height)
	assert.NotPanics(t, func() { _ = m.View() })
}
