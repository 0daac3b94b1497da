package ledger

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/cointax/transaction"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func day(d int) time.Time {
	return time.Date(2021, time.March, d, 12, 0, 0, 0, time.UTC)
}

func buy(d int, asset, qty, price string) transaction.Transaction {
	q, p := dec(qty), dec(price)
	return transaction.New(day(d), transaction.Buy, asset, q,
		transaction.WithSpotPrice(p),
		transaction.WithSubtotal(p.Mul(q)),
		transaction.WithTotal(p.Mul(q)),
	)
}

func sell(d int, asset, qty, price string) transaction.Transaction {
	q, p := dec(qty), dec(price)
	return transaction.New(day(d), transaction.Sell, asset, q,
		transaction.WithSpotPrice(p),
		transaction.WithSubtotal(p.Mul(q)),
		transaction.WithTotal(p.Mul(q)),
	)
}

func queueOf(policy Policy, lots ...Lot) *LotQueue {
	q := NewLotQueue(policy)
	for _, lot := range lots {
		q.Enqueue(lot)
	}
	return q
}
