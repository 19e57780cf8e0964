package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReaderPromptsAndTrims(t *testing.T) {
	var out bytes.Buffer
	r := NewLineReader(strings.NewReader(" upi \n"), &out)

	line, err := r.Prompt(context.Background(), "Pay: ")
	require.NoError(t, err)
	assert.Equal(t, "upi", line)
	assert.Equal(t, "Pay: ", out.String())

	_, err = r.Prompt(context.Background(), "Pay: ")
	assert.ErrorIs(t, err, io.EOF)
}

func newInputModel(history ...string) inputModel {
	ti := textinput.New()
	ti.Focus()
	return inputModel{textInput: ti, history: history, historyIndex: -1}
}

func press(m inputModel, key tea.KeyType) inputModel {
	next, _ := m.Update(tea.KeyMsg{Type: key})
	return next.(inputModel)
}

func TestInputModelHistory(t *testing.T) {
	m := newInputModel("products", "sell 2 widget")
	m.textInput.SetValue("draft")

	m = press(m, tea.KeyUp)
	assert.Equal(t, "sell 2 widget", m.textInput.Value())
	m = press(m, tea.KeyUp)
	assert.Equal(t, "products", m.textInput.Value())
	m = press(m, tea.KeyUp)
	assert.Equal(t, "products", m.textInput.Value())

	m = press(m, tea.KeyDown)
	assert.Equal(t, "sell 2 widget", m.textInput.Value())
	m = press(m, tea.KeyDown)
	assert.Equal(t, "draft", m.textInput.Value())
}

func TestInputModelKeys(t *testing.T) {
	m := press(newInputModel(), tea.KeyCtrlD)
	assert.True(t, m.eof)
	assert.Empty(t, m.View())

	m = press(newInputModel(), tea.KeyCtrlC)
	assert.True(t, m.interrupted)

	m = newInputModel()
	m.textInput.SetValue("widget")
	m = press(m, tea.KeyCtrlD)
	assert.False(t, m.eof, "ctrl+d with text is not end of input")

	m = press(m, tea.KeyEnter)
	assert.True(t, m.done)
	assert.Equal(t, "widget", m.textInput.Value())
}

func TestInteractiveReaderHistoryDedup(t *testing.T) {
	r := NewInteractiveReader(io.Discard, 2)
	r.addToHistory("a")
	r.addToHistory("a")
	r.addToHistory("b")
	r.addToHistory("c")

	assert.Equal(t, []string{"b", "c"}, r.history)
}
