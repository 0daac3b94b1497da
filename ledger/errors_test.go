package ledger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/cointax/transaction"
)

func TestShortfallError(t *testing.T) {
	txn := transaction.New(time.Date(2021, 5, 1, 9, 30, 0, 0, time.UTC), transaction.Sell, "BTC", dec("3"))

	err := NewShortfallError(txn, Match{Matched: dec("2"), Unmatched: dec("1")})
	assert.Equal(t, "2021-05-01 09:30:00: Cannot account for 1 BTC of Sell 3 (matched 2)", err.Error())
	assert.Equal(t, "", err.GetSource())

	txn.Source = "coinbase.csv:12"
	err = NewShortfallError(txn, Match{Matched: dec("2"), Unmatched: dec("1")})
	assert.Equal(t, "coinbase.csv:12: Cannot account for 1 BTC of Sell 3 (matched 2)", err.Error())

	wrapped := fmt.Errorf("reconcile: %w", err)
	assert.True(t, errors.Is(wrapped, ErrEmptyQueue))

	var target *ShortfallError
	assert.True(t, errors.As(wrapped, &target))
	assertDecimal(t, "1", target.Unmatched())
}

func TestInvariantViolationError(t *testing.T) {
	err := &InvariantViolationError{
		Asset:     "ETH",
		Balance:   dec("2"),
		Queued:    dec("1.5"),
		Timestamp: time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	assert.Equal(t, "2021-01-02 03:04:05: Position ETH is inconsistent: balance 2, lots hold 1.5", err.Error())
}

func TestReconcileErrors(t *testing.T) {
	short := &ShortfallError{Asset: "BTC", Kind: transaction.Sell, Requested: dec("2"), Matched: dec("1")}
	fatal := errors.New("boom")

	tests := []struct {
		name string
		err  *ReconcileErrors
		want string
		n    int
	}{
		{"fatal", &ReconcileErrors{Fatal: fatal, Shortfalls: []*ShortfallError{short}}, "boom", 2},
		{"one shortfall", &ReconcileErrors{Shortfalls: []*ShortfallError{short}}, short.Error(), 1},
		{"many shortfalls", &ReconcileErrors{Shortfalls: []*ShortfallError{short, short}}, "2 shortfalls occurred", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Equal(t, tt.n, len(tt.err.Errors()))
		})
	}
}
