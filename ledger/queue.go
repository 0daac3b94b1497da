package ledger

import (
	"github.com/shopspring/decimal"
)

// LotQueue holds the lots of one asset in acquisition order.
//
// Lots always enter at the tail. FIFO reads from the head, LIFO from the tail.
// The queue is an arena: a slice plus a head index, so consuming from either
// end and rewriting the next lot in place never moves other lots.
type LotQueue struct {
	policy Policy
	lots   []Lot
	head   int
}

// NewLotQueue creates an empty queue for the given policy.
func NewLotQueue(policy Policy) *LotQueue {
	return &LotQueue{policy: policy}
}

// Policy returns the queue's lot-selection policy.
func (q *LotQueue) Policy() Policy {
	return q.policy
}

// Len returns the number of lots held.
func (q *LotQueue) Len() int {
	return len(q.lots) - q.head
}

// IsEmpty reports whether the queue holds no lots.
func (q *LotQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Enqueue appends a lot at the tail. Lots without a positive quantity are
// never stored.
func (q *LotQueue) Enqueue(lot Lot) {
	if !lot.Quantity.IsPositive() {
		return
	}
	q.lots = append(q.lots, lot)
}

// next returns the arena index of the lot the policy consumes next.
// LIFO reads the tail; FIFO and WeightedAverage read the head.
func (q *LotQueue) next() int {
	if q.policy == LIFO {
		return len(q.lots) - 1
	}
	return q.head
}

// Peek returns the lot that Consume would remove, without removing it.
func (q *LotQueue) Peek() (Lot, bool) {
	if q.IsEmpty() {
		return Lot{}, false
	}
	return q.lots[q.next()], true
}

// Consume removes and returns the next lot.
func (q *LotQueue) Consume() (Lot, error) {
	if q.IsEmpty() {
		return Lot{}, ErrEmptyQueue
	}

	i := q.next()
	lot := q.lots[i]
	q.lots[i] = Lot{}

	if i == q.head {
		q.head++
	} else {
		q.lots = q.lots[:i]
	}
	q.compact()

	return lot, nil
}

// Replace overwrites the next lot in place, keeping its position. A lot
// without a positive quantity is removed instead of stored.
func (q *LotQueue) Replace(lot Lot) error {
	if q.IsEmpty() {
		return ErrEmptyQueue
	}
	if !lot.Quantity.IsPositive() {
		_, err := q.Consume()
		return err
	}
	q.lots[q.next()] = lot
	return nil
}

// compact reclaims the dead prefix once it dominates the arena.
func (q *LotQueue) compact() {
	if q.head == len(q.lots) {
		q.lots = q.lots[:0]
		q.head = 0
		return
	}
	if q.head > 32 && q.head*2 >= len(q.lots) {
		n := copy(q.lots, q.lots[q.head:])
		clear(q.lots[n:])
		q.lots = q.lots[:n]
		q.head = 0
	}
}

// TotalQuantity returns the sum of all lot quantities.
func (q *LotQueue) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range q.lots[q.head:] {
		total = total.Add(lot.Quantity)
	}
	return total
}

// TotalCost returns the sum of all stored lot cost bases.
func (q *LotQueue) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range q.lots[q.head:] {
		total = total.Add(lot.CostBasis)
	}
	return total
}

// AveragePrice returns Σ price·quantity / Σ quantity over the held lots,
// or zero for an empty queue.
func (q *LotQueue) AveragePrice() decimal.Decimal {
	value := decimal.Zero
	quantity := decimal.Zero
	for _, lot := range q.lots[q.head:] {
		value = value.Add(lot.PricePerUnit.Mul(lot.Quantity))
		quantity = quantity.Add(lot.Quantity)
	}
	if quantity.IsZero() {
		return decimal.Zero
	}
	return value.Div(quantity)
}

// ReduceAverage removes up to qty units without consuming lots individually:
// the held lots collapse into a single lot at the average price carrying the
// remaining quantity. It returns the quantity actually removed.
func (q *LotQueue) ReduceAverage(qty decimal.Decimal, places int32) decimal.Decimal {
	total := q.TotalQuantity()
	if total.IsZero() || !qty.IsPositive() {
		return decimal.Zero
	}

	removed := decimal.Min(qty, total)
	left := total.Sub(removed).Round(places)
	avg := q.AveragePrice()
	acquired := q.lots[len(q.lots)-1].Acquired

	clear(q.lots)
	q.lots = q.lots[:0]
	q.head = 0

	if left.IsPositive() {
		lot := NewLot(avg, left)
		lot.Acquired = acquired
		q.lots = append(q.lots, lot)
	}
	return removed
}

// Lots returns a copy of the held lots, oldest first.
func (q *LotQueue) Lots() []Lot {
	out := make([]Lot, q.Len())
	copy(out, q.lots[q.head:])
	return out
}
