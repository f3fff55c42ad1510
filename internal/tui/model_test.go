package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerag/internal/conversation"
)

type stubRetriever struct{ answer string }

func (s stubRetriever) Retrieve(context.Context, string, int) string { return s.answer }

func typeText(t *testing.T, m tea.Model, s string) tea.Model {
	t.Helper()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestEnterRunsTurn(t *testing.T) {
	flow := conversation.New(stubRetriever{answer: "Reference 1:\nWe open at nine. Closed Sundays.\n"}, 4, nil)
	var m tea.Model = New(flow, "3 chunks in documents_collection")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, m.View(), "No questions yet.")
	assert.Contains(t, m.View(), conversation.Greeting[:20])

	m = typeText(t, m, "when do you open")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	h := flow.History()
	require.Len(t, h, 3)
	assert.Equal(t, "when do you open", h[1].Content)
	view := m.View()
	assert.Contains(t, view, "when do you open")
	assert.Contains(t, view, "Reference 1:")
	assert.Contains(t, view, "Context attached")
	assert.Empty(t, m.(Model).input.Value())
}

func TestEnterOnBlankInputDoesNothing(t *testing.T) {
	flow := conversation.New(stubRetriever{answer: "x"}, 4, nil)
	var m tea.Model = New(flow, "")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = typeText(t, m, "   ")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Len(t, flow.History(), 1)
}

func TestQuitSaysFarewell(t *testing.T) {
	var m tea.Model = New(conversation.New(stubRetriever{}, 4, nil), "")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, conversation.Farewell, m.(Model).status)
}

func TestTokenOverlapScore(t *testing.T) {
	q := toTokenSet("When do you OPEN")
	assert.Equal(t, 2, tokenOverlapScore(q, "We open when the doors open."))
	assert.Equal(t, 0, tokenOverlapScore(q, "Closed Sundays."))
}

func TestHighlightKeepsTextWithoutMatch(t *testing.T) {
	text := "Reference 1:\nClosed Sundays.\n"
	assert.Equal(t, text, highlightBestSentence(text, "parking"))
	assert.Equal(t, text, highlightBestSentence(text, ""))
}
