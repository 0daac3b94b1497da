// Package output provides terminal styling for reports and diagnostics.
package output

import (
	"io"

	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"
)

// Styles renders styled strings for the terminal behind a writer.
// When the writer is not a terminal, strings are returned unstyled.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates Styles for the given writer.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

// Success returns green bold text.
func (s *Styles) Success(text string) string {
	return s.output.String(text).Foreground(s.output.Color("2")).Bold().String()
}

// Error returns red bold text.
func (s *Styles) Error(text string) string {
	return s.output.String(text).Foreground(s.output.Color("1")).Bold().String()
}

// Warning returns yellow bold text.
func (s *Styles) Warning(text string) string {
	return s.output.String(text).Foreground(s.output.Color("3")).Bold().String()
}

// FilePath returns cyan text.
func (s *Styles) FilePath(text string) string {
	return s.output.String(text).Foreground(s.output.Color("6")).String()
}

// Asset returns a styled asset symbol (yellow).
func (s *Styles) Asset(text string) string {
	return s.output.String(text).Foreground(s.output.Color("3")).String()
}

// Amount returns a styled amount (magenta).
func (s *Styles) Amount(text string) string {
	return s.output.String(text).Foreground(s.output.Color("5")).String()
}

// Gain returns green text.
func (s *Styles) Gain(text string) string {
	return s.output.String(text).Foreground(s.output.Color("2")).String()
}

// Loss returns red text.
func (s *Styles) Loss(text string) string {
	return s.output.String(text).Foreground(s.output.Color("1")).String()
}

// Signed styles text as a gain or a loss depending on the sign of value.
// Zero is left unstyled.
func (s *Styles) Signed(text string, value decimal.Decimal) string {
	switch value.Sign() {
	case 1:
		return s.Gain(text)
	case -1:
		return s.Loss(text)
	}
	return text
}

// Keyword returns bold text.
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim returns faint text for secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Timing styles a duration; slow operations are red, the rest dimmed.
func (s *Styles) Timing(text string, isSlowOperation bool) string {
	if isSlowOperation {
		return s.output.String(text).Foreground(s.output.Color("1")).String()
	}
	return s.Dim(text)
}

// Output returns the underlying termenv output.
func (s *Styles) Output() *termenv.Output {
	return s.output
}
