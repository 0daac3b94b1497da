package transaction

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var convertNotePattern = regexp.MustCompile(`^Converted ([0-9,]*\.?[0-9]*) ([A-Z0-9]+) to ([0-9,]*\.?[0-9]*) ([A-Z0-9]+)`)

// ConvertNote is the structured content of a "Converted X A to Y B" note.
type ConvertNote struct {
	FromQuantity decimal.Decimal
	FromAsset    string
	ToQuantity   decimal.Decimal
	ToAsset      string
}

// MalformedConvertNoteError is returned when a Convert transaction's note
// cannot be split into a sell leg and a buy leg.
type MalformedConvertNoteError struct {
	Note   string
	Source string
	Err    error
}

func (e *MalformedConvertNoteError) Error() string {
	prefix := "malformed convert note"
	if e.Source != "" {
		prefix = e.Source + ": " + prefix
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %v", prefix, e.Note, e.Err)
	}
	return fmt.Sprintf("%s %q", prefix, e.Note)
}

func (e *MalformedConvertNoteError) Unwrap() error {
	return e.Err
}

// GetNote returns the original note text.
func (e *MalformedConvertNoteError) GetNote() string {
	return e.Note
}

var errNoMatch = errors.New(`expected "Converted <qty> <ASSET> to <qty> <ASSET>"`)

// ParseConvertNote extracts both legs of a conversion from its note.
// Thousands separators are ignored; zero quantities are rejected.
func ParseConvertNote(note string) (ConvertNote, error) {
	m := convertNotePattern.FindStringSubmatch(strings.TrimSpace(note))
	if m == nil {
		return ConvertNote{}, &MalformedConvertNoteError{Note: note, Err: errNoMatch}
	}

	from, err := parseNoteQuantity(m[1])
	if err != nil {
		return ConvertNote{}, &MalformedConvertNoteError{Note: note, Err: err}
	}
	to, err := parseNoteQuantity(m[3])
	if err != nil {
		return ConvertNote{}, &MalformedConvertNoteError{Note: note, Err: err}
	}

	return ConvertNote{
		FromQuantity: from,
		FromAsset:    m[2],
		ToQuantity:   to,
		ToAsset:      m[4],
	}, nil
}

func parseNoteQuantity(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("quantity %q must be positive", s)
	}
	return d, nil
}

// SplitConvert turns a Convert transaction into a synthetic Sell of the source
// asset followed by a synthetic Buy of the destination asset. Each leg carries
// half of the original fee. The buy price is the subtotal divided by the
// received quantity.
func (t Transaction) SplitConvert() (sell, buy Transaction, err error) {
	note, err := ParseConvertNote(t.Note)
	if err != nil {
		var mErr *MalformedConvertNoteError
		if errors.As(err, &mErr) {
			mErr.Source = t.Source
		}
		return Transaction{}, Transaction{}, err
	}

	halfFee := t.Fees.Div(decimal.NewFromInt(2))

	sell = New(t.Timestamp, Sell, note.FromAsset, note.FromQuantity,
		WithRawKind("ConvertSell"),
		WithSpotPrice(t.SpotPrice),
		WithSubtotal(t.Subtotal),
		WithTotal(t.Total),
		WithFees(halfFee),
		WithCurrency(t.Currency),
		WithSource(t.Source),
	)
	buy = New(t.Timestamp, Buy, note.ToAsset, note.ToQuantity,
		WithRawKind("ConvertBuy"),
		WithSpotPrice(t.Subtotal.Div(note.ToQuantity)),
		WithSubtotal(t.Subtotal),
		WithTotal(t.Total),
		WithFees(halfFee),
		WithCurrency(t.Currency),
		WithSource(t.Source),
	)
	return sell, buy, nil
}
