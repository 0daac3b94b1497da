package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// RealizedSale is one disposal that was fully matched against held lots.
type RealizedSale struct {
	DateSold          time.Time
	LastAcquired      time.Time
	LastPurchasePrice decimal.Decimal
	Quantity          decimal.Decimal
	Asset             string
	SpotPrice         decimal.Decimal
	OriginalCost      decimal.Decimal // the sale's subtotal
	Currency          string
	CostBasis         decimal.Decimal
	Total             decimal.Decimal
	Gains             decimal.Decimal
	Fees              decimal.Decimal
}

// IsLoss reports whether the sale realized a loss.
func (s RealizedSale) IsLoss() bool {
	return s.Gains.IsNegative()
}

// IncomeRecord is one receipt of an asset that counts as income.
type IncomeRecord struct {
	DateReceived time.Time
	Quantity     decimal.Decimal
	Asset        string
	SpotPrice    decimal.Decimal
	Currency     string
	Total        decimal.Decimal // subtotal, fees excluded
	Fees         decimal.Decimal
}
