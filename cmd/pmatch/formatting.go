package main

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"pmatch/pkg/errors"
	"pmatch/pkg/parser"
)

var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	codeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	caretStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

func colorEnabled(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderError formats err for the terminal. Syntax errors keep their
// three line layout with the caret highlighted.
func renderError(err error, color bool) string {
	code := errors.GetErrorCode(err)
	msg := err.Error()

	var syn *parser.SyntaxError
	if stderrors.As(err, &syn) {
		msg = syn.Error()
	}
	if !color {
		return "Error: " + msg
	}

	lines := strings.Split(msg, "\n")
	if syn != nil && len(lines) == 3 {
		lines[2] = caretStyle.Render(lines[2])
	}
	head := errorStyle.Render("Error:")
	if code != errors.ErrUnknown {
		head += " " + codeStyle.Render(string(code))
	}
	return head + " " + strings.Join(lines, "\n")
}
