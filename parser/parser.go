// Package parser reads exchange CSV exports into normalized transactions.
//
// Supported layouts are the Coinbase transaction history report and the two
// Coinbase Pro reports (fills and account statement). The layout is detected
// from the header row; anything before the header, such as the banner
// Coinbase prepends to its reports, is skipped.
//
//	txns, err := parser.Parse(ctx, "history.csv", f)
//	if err != nil {
//	    var perr *parser.ParseError
//	    if errors.As(err, &perr) {
//	        fmt.Println(perr.Pos.Line)
//	    }
//	}
package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/robinvdvleuten/cointax/logging"
	"github.com/robinvdvleuten/cointax/transaction"
)

// Option configures a parse.
type Option func(*config)

type config struct {
	format Format
}

// WithFormat forces a layout instead of detecting it.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// Parse reads every transaction from r. filename is only used for positions
// in errors and transaction sources. Parsing stops at the first bad row.
func Parse(ctx context.Context, filename string, r io.Reader, opts ...Option) (transaction.Transactions, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &parser{
		filename: filename,
		reader:   csv.NewReader(r),
		interner: NewInterner(64),
		log:      logging.FromContext(ctx),
	}
	p.reader.FieldsPerRecord = -1
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.ReuseRecord = true

	if err := p.readHeader(cfg.format); err != nil {
		return nil, err
	}

	var txns transaction.Transactions
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := p.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, p.csvError(err)
		}
		if blank(row) {
			continue
		}

		txn, ok, err := p.decode(row)
		if err != nil {
			return nil, err
		}
		if ok {
			txns = append(txns, txn)
		}
	}

	return txns, nil
}

// ParseBytes parses an in-memory export.
func ParseBytes(ctx context.Context, filename string, data []byte, opts ...Option) (transaction.Transactions, error) {
	return Parse(ctx, filename, bytes.NewReader(data), opts...)
}

// ParseString parses an export held in a string.
func ParseString(ctx context.Context, s string, opts ...Option) (transaction.Transactions, error) {
	return Parse(ctx, "", strings.NewReader(s), opts...)
}

// MustParseString is like ParseString but panics on error.
func MustParseString(ctx context.Context, s string, opts ...Option) transaction.Transactions {
	txns, err := ParseString(ctx, s, opts...)
	if err != nil {
		panic(err)
	}
	return txns
}

type parser struct {
	filename string
	reader   *csv.Reader
	interner *Interner
	log      logrus.FieldLogger

	format Format
	header header
}

// readHeader skips rows until one is a header of the requested format, or of
// any known format when detecting.
func (p *parser) readHeader(want Format) error {
	for {
		row, err := p.reader.Read()
		if err == io.EOF {
			return NewParseError(Position{Filename: p.filename, Line: 1, Column: 1}, ErrUnknownFormat)
		}
		if err != nil {
			return p.csvError(err)
		}

		h := newHeader(row)
		format := want
		if want == FormatAuto {
			detected, ok := Detect(row)
			if !ok {
				continue
			}
			format = detected
		} else if !h.has(required[want]...) {
			continue
		}

		p.format = format
		p.header = h
		line, _ := p.reader.FieldPos(0)
		p.log.WithField("format", format.String()).Debugf("%s: header on line %d", p.filename, line)
		return nil
	}
}

func (p *parser) decode(row []string) (transaction.Transaction, bool, error) {
	switch p.format {
	case FormatCoinbase:
		return p.decodeCoinbase(row)
	case FormatCoinbaseProFills:
		return p.decodeFill(row)
	case FormatCoinbaseProAccount:
		return p.decodeAccount(row)
	}
	return transaction.Transaction{}, false, p.errorAt(0, fmt.Errorf("unsupported format %s", p.format))
}

// position returns the location of field i of the current row.
func (p *parser) position(field int) Position {
	line, column := p.reader.FieldPos(field)
	return Position{Filename: p.filename, Line: line, Column: column}
}

// source identifies the current row for diagnostics.
func (p *parser) source() string {
	return p.position(0).String()
}

func (p *parser) errorAt(field int, err error) *ParseError {
	return NewParseError(p.position(field), err)
}

func (p *parser) csvError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{
			Pos:        Position{Filename: p.filename, Line: csvErr.Line, Column: csvErr.Column},
			Message:    csvErr.Err.Error(),
			Underlying: err,
		}
	}
	return NewParseError(Position{Filename: p.filename}, err)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
