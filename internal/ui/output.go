package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

type fdWriter interface {
	Fd() uintptr
}

// IsTerminal reports whether v (a reader or writer) is attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(fdWriter)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printer writes lines to w, styling them only when w is a terminal and
// NO_COLOR is unset.
type Printer struct {
	w      io.Writer
	styled bool
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, styled: IsTerminal(w) && os.Getenv("NO_COLOR") == ""}
}

// Styled reports whether output is styled.
func (p *Printer) Styled() bool {
	return p.styled
}

// Render applies style to s when styling is enabled.
func (p *Printer) Render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

// Println writes a line.
func (p *Printer) Println(s string) {
	fmt.Fprintln(p.w, s)
}
