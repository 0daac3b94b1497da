package parser

import (
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned when no supported header row is found.
var ErrUnknownFormat = errors.New("unrecognized export format")

// Position is a location in a source file. Line and Column are 1-based.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// ParseError is a failure to read one row of an export.
type ParseError struct {
	Pos        Position
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func (e *ParseError) GetPosition() Position {
	return e.Pos
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// NewParseError creates a parse error at the given position.
func NewParseError(pos Position, err error) *ParseError {
	return &ParseError{
		Pos:        pos,
		Message:    err.Error(),
		Underlying: err,
	}
}
