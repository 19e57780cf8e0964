package console

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorMuted   = lipgloss.Color("#6B7F86")
)

// Theme holds the styles used for terminal output. A plain theme writes
// text unchanged, which keeps piped output and tests free of escape codes.
type Theme struct {
	plain bool

	Title   lipgloss.Style
	Name    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
}

func NewTheme(w io.Writer, plain bool) Theme {
	r := lipgloss.NewRenderer(w)
	return Theme{
		plain:   plain,
		Title:   r.NewStyle().Bold(true).Foreground(colorAccent),
		Name:    r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(colorSuccess),
		Warning: r.NewStyle().Foreground(colorWarning),
		Muted:   r.NewStyle().Foreground(colorMuted),
	}
}

func (t Theme) paint(s lipgloss.Style, text string) string {
	if t.plain {
		return text
	}
	return s.Render(text)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
