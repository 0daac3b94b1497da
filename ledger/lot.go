package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Lot is one acquisition of an asset.
//
// CostBasis defaults to PricePerUnit × Quantity but may differ: income lots
// carry zero cost, recovered withdrawals carry their original basis.
type Lot struct {
	PricePerUnit decimal.Decimal
	Quantity     decimal.Decimal
	CostBasis    decimal.Decimal
	Acquired     time.Time
}

// NewLot creates a lot whose cost basis is price × quantity.
func NewLot(price, quantity decimal.Decimal) Lot {
	return Lot{
		PricePerUnit: price,
		Quantity:     quantity,
		CostBasis:    price.Mul(quantity),
	}
}

// NewLotWithCost creates a lot with an explicit cost basis.
func NewLotWithCost(price, quantity, cost decimal.Decimal) Lot {
	return Lot{
		PricePerUnit: price,
		Quantity:     quantity,
		CostBasis:    cost,
	}
}

// reduce returns the lot with qty units removed. The stored cost basis shrinks
// in proportion to the quantity left.
func (l Lot) reduce(qty decimal.Decimal, places int32) Lot {
	left := l.Quantity.Sub(qty).Round(places)
	if l.Quantity.IsZero() || !left.IsPositive() {
		l.Quantity = decimal.Zero
		l.CostBasis = decimal.Zero
		return l
	}
	l.CostBasis = l.CostBasis.Mul(left).Div(l.Quantity)
	l.Quantity = left
	return l
}

func (l Lot) String() string {
	return fmt.Sprintf("%s @ %s (basis %s)", l.Quantity.String(), l.PricePerUnit.String(), l.CostBasis.StringFixed(2))
}
