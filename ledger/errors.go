package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/cointax/transaction"
)

// ErrEmptyQueue is returned when a lot is requested from an empty queue.
var ErrEmptyQueue = errors.New("lot queue is empty")

// location renders where a transaction came from: its source when known,
// its timestamp otherwise.
func location(source string, ts time.Time) string {
	if source != "" {
		return source
	}
	return ts.Format("2006-01-02 15:04:05")
}

// ShortfallError describes a disposal that could not be fully matched against
// held lots. It is recoverable: the run continues and the disposal is skipped
// (Sell) or its balance clamped (Send).
type ShortfallError struct {
	Asset     string
	Kind      transaction.Kind
	Timestamp time.Time
	Source    string
	Requested decimal.Decimal
	Matched   decimal.Decimal
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("%s: Cannot account for %s %s of %s %s (matched %s)",
		location(e.Source, e.Timestamp), e.Unmatched().String(), e.Asset,
		e.Kind, e.Requested.String(), e.Matched.String())
}

// Unwrap allows errors.Is(err, ErrEmptyQueue).
func (e *ShortfallError) Unwrap() error {
	return ErrEmptyQueue
}

// Unmatched returns the quantity no lot could account for.
func (e *ShortfallError) Unmatched() decimal.Decimal {
	return e.Requested.Sub(e.Matched)
}

func (e *ShortfallError) GetSource() string {
	return e.Source
}

func (e *ShortfallError) GetTimestamp() time.Time {
	return e.Timestamp
}

// NewShortfallError creates a ShortfallError for a transaction.
func NewShortfallError(t transaction.Transaction, m Match) *ShortfallError {
	return &ShortfallError{
		Asset:     t.Asset,
		Kind:      t.Kind,
		Timestamp: t.Timestamp,
		Source:    t.Source,
		Requested: m.Matched.Add(m.Unmatched),
		Matched:   m.Matched,
	}
}

// UnrecognizedTransactionKindError is returned for a transaction whose kind
// has no known tax treatment. It aborts the run.
type UnrecognizedTransactionKindError struct {
	Label     string
	Timestamp time.Time
	Source    string
}

func (e *UnrecognizedTransactionKindError) Error() string {
	return fmt.Sprintf("%s: Unrecognized transaction kind %q", location(e.Source, e.Timestamp), e.Label)
}

func (e *UnrecognizedTransactionKindError) GetSource() string {
	return e.Source
}

func (e *UnrecognizedTransactionKindError) GetTimestamp() time.Time {
	return e.Timestamp
}

// NewUnrecognizedTransactionKindError creates an error for the transaction.
func NewUnrecognizedTransactionKindError(t transaction.Transaction) *UnrecognizedTransactionKindError {
	return &UnrecognizedTransactionKindError{
		Label:     t.Label(),
		Timestamp: t.Timestamp,
		Source:    t.Source,
	}
}

// InvariantViolationError is returned when a position's balance no longer
// equals the quantity held in its lots. It indicates corrupt input or a bug,
// and aborts the run.
type InvariantViolationError struct {
	Asset     string
	Balance   decimal.Decimal
	Queued    decimal.Decimal
	Timestamp time.Time
	Source    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("%s: Position %s is inconsistent: balance %s, lots hold %s",
		location(e.Source, e.Timestamp), e.Asset, e.Balance.String(), e.Queued.String())
}

func (e *InvariantViolationError) GetSource() string {
	return e.Source
}

func (e *InvariantViolationError) GetTimestamp() time.Time {
	return e.Timestamp
}

// ReconcileErrors carries the fatal error that stopped a run, if any, along
// with the shortfalls logged before it.
type ReconcileErrors struct {
	Fatal      error
	Shortfalls []*ShortfallError
}

func (e *ReconcileErrors) Error() string {
	if e.Fatal != nil {
		return e.Fatal.Error()
	}
	if len(e.Shortfalls) == 1 {
		return e.Shortfalls[0].Error()
	}
	return fmt.Sprintf("%d shortfalls occurred", len(e.Shortfalls))
}

// Unwrap returns the fatal error followed by every shortfall.
func (e *ReconcileErrors) Unwrap() []error {
	errs := make([]error, 0, len(e.Shortfalls)+1)
	if e.Fatal != nil {
		errs = append(errs, e.Fatal)
	}
	for _, s := range e.Shortfalls {
		errs = append(errs, s)
	}
	return errs
}

// Errors returns the same list as Unwrap.
func (e *ReconcileErrors) Errors() []error {
	return e.Unwrap()
}
