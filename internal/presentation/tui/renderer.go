package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Render renders markdown for f: styled on a terminal, raw otherwise.
func Render(f *os.File, markdown string) (string, error) {
	if !IsTerminal(f) {
		return markdown, nil
	}
	render, err := NewRenderer()
	if err != nil {
		return "", err
	}
	return render(markdown)
}
