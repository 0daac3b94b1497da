// Package errors renders cointax errors. It separates presentation from the
// packages that raise them, so the same error can be shown on the command
// line or returned from the report server.
//
// The package defines a Formatter interface and provides two implementations:
//   - TextFormatter: formats errors for command-line output, quoting the
//     offending row of the export when its content is available
//   - JSONFormatter: formats errors as structured JSON for the report server
//
// Domain-specific error types remain in their respective packages (parser,
// transaction, ledger, algorand).
package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robinvdvleuten/cointax/algorand"
	"github.com/robinvdvleuten/cointax/ledger"
	"github.com/robinvdvleuten/cointax/parser"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

// positioned is implemented by errors that point at a cell of an export.
type positioned interface {
	GetPosition() parser.Position
}

// sourced is implemented by errors raised for one transaction.
type sourced interface {
	GetSource() string
	GetTimestamp() time.Time
}

// TextFormatter formats errors for command-line output.
type TextFormatter struct {
	sources map[string][]byte // file contents keyed by filename
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource registers the content of a file so errors raised for its rows
// can quote them.
func WithSource(filename string, content []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.sources[filename] = content
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{sources: make(map[string][]byte)}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error. A *ledger.ReconcileErrors is expanded into
// its fatal error and shortfalls.
func (tf *TextFormatter) Format(err error) string {
	var multi *ledger.ReconcileErrors
	if stderrors.As(err, &multi) {
		return tf.FormatAll(multi.Errors())
	}

	var p positioned
	if stderrors.As(err, &p) {
		pos := p.GetPosition()
		if content, ok := tf.sources[pos.Filename]; ok {
			return tf.formatWithSourceContext(pos, err.Error(), content)
		}
		return err.Error()
	}

	var s sourced
	if stderrors.As(err, &s) {
		if pos, ok := SourcePosition(s.GetSource()); ok {
			if content, ok := tf.sources[pos.Filename]; ok {
				return tf.formatWithSourceContext(pos, err.Error(), content)
			}
		}
	}

	return err.Error()
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(strings.TrimRight(tf.Format(err), "\n"))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// formatWithSourceContext writes the message followed by the rows around the
// offending one. A caret marks the column when it is known.
func (tf *TextFormatter) formatWithSourceContext(pos parser.Position, message string, content []byte) string {
	var buf bytes.Buffer

	buf.WriteString(message)
	buf.WriteString("\n\n")

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")

	// One row either side of the error row; pos.Line is 1-based.
	start := max(pos.Line-2, 0)
	end := min(pos.Line, len(lines)-1)

	for i := start; i <= end; i++ {
		buf.WriteString("   ")
		buf.WriteString(strings.TrimRight(lines[i], "\r"))
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", pos.Column-1))
			buf.WriteString("^\n")
		}
	}

	return buf.String()
}

// SourcePosition reads a "file:line" transaction source back into a position.
func SourcePosition(source string) (parser.Position, bool) {
	i := strings.LastIndexByte(source, ':')
	if i <= 0 {
		return parser.Position{}, false
	}
	line, err := strconv.Atoi(source[i+1:])
	if err != nil || line < 1 {
		return parser.Position{}, false
	}
	return parser.Position{Filename: source[:i], Line: line}, true
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Position *PositionJSON  `json:"position,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// PositionJSON represents a file position in JSON format.
type PositionJSON struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs. A
// *ledger.ReconcileErrors contributes one entry per contained error.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		var multi *ledger.ReconcileErrors
		if stderrors.As(err, &multi) {
			result = append(result, jf.FormatAllToSlice(multi.Errors())...)
			continue
		}
		result = append(result, jf.toJSON(err))
	}
	return result
}

func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Details: make(map[string]any),
	}

	var p positioned
	if stderrors.As(err, &p) {
		pos := p.GetPosition()
		errJSON.Position = &PositionJSON{
			Filename: pos.Filename,
			Line:     pos.Line,
			Column:   pos.Column,
		}
	}

	var s sourced
	if stderrors.As(err, &s) {
		if source := s.GetSource(); source != "" {
			errJSON.Details["source"] = source
		}
		if ts := s.GetTimestamp(); !ts.IsZero() {
			errJSON.Details["timestamp"] = ts.Format(time.RFC3339)
		}
	}

	var shortfall *ledger.ShortfallError
	var unknown *ledger.UnrecognizedTransactionKindError
	var invariant *ledger.InvariantViolationError
	var note interface{ GetNote() string }
	var httpErr *algorand.HTTPError

	switch {
	case stderrors.As(err, &shortfall):
		errJSON.Details["asset"] = shortfall.Asset
		errJSON.Details["kind"] = shortfall.Kind.String()
		errJSON.Details["requested"] = shortfall.Requested.String()
		errJSON.Details["matched"] = shortfall.Matched.String()
		errJSON.Details["unmatched"] = shortfall.Unmatched().String()
	case stderrors.As(err, &unknown):
		errJSON.Details["kind"] = unknown.Label
	case stderrors.As(err, &invariant):
		errJSON.Details["asset"] = invariant.Asset
		errJSON.Details["balance"] = invariant.Balance.String()
		errJSON.Details["queued"] = invariant.Queued.String()
	case stderrors.As(err, &note):
		errJSON.Details["note"] = note.GetNote()
	case stderrors.As(err, &httpErr):
		errJSON.Details["status"] = httpErr.StatusCode
		errJSON.Details["url"] = httpErr.URL
	}

	if len(errJSON.Details) == 0 {
		errJSON.Details = nil
	}

	return errJSON
}
