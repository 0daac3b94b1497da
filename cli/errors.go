package cli

import (
	stdErrors "errors"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	cterrors "github.com/robinvdvleuten/cointax/errors"
	"github.com/robinvdvleuten/cointax/ledger"
	"github.com/robinvdvleuten/cointax/parser"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
// Files named by an error are read on first use.
type ErrorRenderer struct {
	sources map[string][]byte
}

// NewErrorRenderer creates a renderer without any preloaded sources.
func NewErrorRenderer() *ErrorRenderer {
	return &ErrorRenderer{sources: make(map[string][]byte)}
}

// AddSource registers content that cannot be read back from disk, such as
// stdin.
func (r *ErrorRenderer) AddSource(filename string, content []byte) {
	r.sources[filename] = content
}

func (r *ErrorRenderer) source(filename string) ([]byte, bool) {
	if filename == "" {
		return nil, false
	}
	if content, ok := r.sources[filename]; ok {
		return content, content != nil
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		content = nil
	}
	r.sources[filename] = content
	return content, content != nil
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	var multi *ledger.ReconcileErrors
	if stdErrors.As(err, &multi) {
		return r.RenderAll(multi.Errors())
	}

	var perr *parser.ParseError
	if stdErrors.As(err, &perr) {
		if content, ok := r.source(perr.Pos.Filename); ok {
			return r.renderWithSourceContext(perr.Pos, perr.Error(), content)
		}
		return err.Error()
	}

	if e, ok := err.(interface {
		GetSource() string
		Error() string
	}); ok {
		if pos, ok := cterrors.SourcePosition(e.GetSource()); ok {
			if content, ok := r.source(pos.Filename); ok {
				return r.renderWithSourceContext(pos, e.Error(), content)
			}
		}
	}

	return err.Error()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(strings.TrimRight(r.Render(err), "\n"))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) renderWithSourceContext(pos parser.Position, message string, sourceContent []byte) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceStr := strings.TrimRight(string(sourceContent), "\n")
	sourceLines := strings.Split(sourceStr, "\n")

	startLine := pos.Line - 3
	endLine := pos.Line

	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(sourceLines) {
		endLine = len(sourceLines) - 1
	}

	for i := startLine; i <= endLine; i++ {
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(strings.TrimRight(sourceLines[i], "\r")))
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", pos.Column-1))
			buf.WriteString(errCaretStyle.Render("^"))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}
