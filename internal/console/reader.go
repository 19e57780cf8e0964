package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted is returned when the operator presses Ctrl+C at a prompt.
var ErrInterrupted = errors.New("interrupted")

// Reader shows a prompt and returns the line typed after it, trimmed.
// It returns io.EOF when input is closed.
type Reader interface {
	Prompt(ctx context.Context, label string) (string, error)
}

type lineResult struct {
	line string
	err  error
}

// LineReader reads plain lines. It is used for piped input and whenever
// stdin is not a terminal.
type LineReader struct {
	in      *bufio.Reader
	out     io.Writer
	pending chan lineResult
}

func NewLineReader(in io.Reader, out io.Writer) *LineReader {
	return &LineReader{in: bufio.NewReader(in), out: out}
}

// Prompt returns early with ctx.Err() when ctx ends; the read it started
// is picked up by the next call.
func (r *LineReader) Prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(r.out, label)

	if r.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := r.in.ReadString('\n')
			if errors.Is(err, io.EOF) && line != "" {
				err = nil
			}
			ch <- lineResult{line: line, err: err}
		}()
		r.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-r.pending:
		r.pending = nil
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}

// InteractiveReader edits lines in the terminal with up/down history.
type InteractiveReader struct {
	out        io.Writer
	history    []string
	maxHistory int
}

func NewInteractiveReader(out io.Writer, maxHistory int) *InteractiveReader {
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &InteractiveReader{
		out:        out,
		history:    make([]string, 0, maxHistory),
		maxHistory: maxHistory,
	}
}

func (r *InteractiveReader) Prompt(ctx context.Context, label string) (string, error) {
	ti := textinput.New()
	ti.Prompt = label
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 80

	m := inputModel{
		textInput:    ti,
		history:      r.history,
		historyIndex: -1,
	}

	p := tea.NewProgram(m, tea.WithOutput(r.out), tea.WithContext(ctx))
	final, err := p.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}

	result, ok := final.(inputModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from bubbletea: %T", final)
	}
	switch {
	case result.interrupted:
		return "", ErrInterrupted
	case result.eof:
		return "", io.EOF
	}

	input := strings.TrimSpace(result.textInput.Value())
	// the program clears its view on exit, so echo the submitted line
	fmt.Fprintln(r.out, label+input)
	if input != "" {
		r.addToHistory(input)
	}
	return input, nil
}

func (r *InteractiveReader) addToHistory(input string) {
	if len(r.history) > 0 && r.history[len(r.history)-1] == input {
		return
	}
	r.history = append(r.history, input)
	if len(r.history) > r.maxHistory {
		r.history = r.history[1:]
	}
}

type inputModel struct {
	textInput    textinput.Model
	history      []string
	historyIndex int
	draft        string
	done         bool
	interrupted  bool
	eof          bool
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC:
			m.interrupted = true
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.textInput.Value() == "" {
				m.eof = true
				m.done = true
				return m, tea.Quit
			}
		case tea.KeyUp:
			if len(m.history) == 0 {
				return m, nil
			}
			if m.historyIndex == -1 {
				m.draft = m.textInput.Value()
				m.historyIndex = len(m.history) - 1
			} else if m.historyIndex > 0 {
				m.historyIndex--
			}
			m.textInput.SetValue(m.history[m.historyIndex])
			m.textInput.CursorEnd()
			return m, nil
		case tea.KeyDown:
			if m.historyIndex == -1 {
				return m, nil
			}
			if m.historyIndex < len(m.history)-1 {
				m.historyIndex++
				m.textInput.SetValue(m.history[m.historyIndex])
			} else {
				m.historyIndex = -1
				m.textInput.SetValue(m.draft)
			}
			m.textInput.CursorEnd()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return m.textInput.View()
}
