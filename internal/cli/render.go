package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"flint/internal/models"
)

var (
	assistantLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316")).Bold(true)
	userLabel      = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F43F5E"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
)

// printer writes conversation output. Markdown and colors are only used when
// the destination is a terminal so piped output stays plain.
type printer struct {
	w        io.Writer
	tty      bool
	renderer *glamour.TermRenderer
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w, tty: isTerminal(w)}
	if p.tty {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			p.renderer = r
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.tty {
		return text
	}
	return s.Render(text)
}

func (p *printer) markdown(content string) string {
	if p.renderer == nil {
		return content + "\n"
	}
	out, err := p.renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}

func (p *printer) message(m models.Message) {
	switch {
	case m.Role == models.RoleUser:
		fmt.Fprintf(p.w, "%s %s\n", p.style(userLabel, "you>"), m.Content)
	case m.IsError:
		fmt.Fprintf(p.w, "%s %s\n", p.style(assistantLabel, "flint>"), p.style(errorStyle, m.Content))
	default:
		fmt.Fprintf(p.w, "%s\n%s", p.style(assistantLabel, "flint>"), p.markdown(m.Content))
	}
}

func (p *printer) hint(format string, args ...any) {
	fmt.Fprintln(p.w, p.style(hintStyle, fmt.Sprintf(format, args...)))
}

// confirm asks a yes/no question on w and reads the answer from in.
func confirm(in lineReader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, ok := in.next()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
