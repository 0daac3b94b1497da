package formatter

import (
	"github.com/robinvdvleuten/cointax/ledger"
)

// LotHeaders are the columns of the rows returned by OpenLots.
var LotHeaders = []string{"Asset", "Acquired", "Quantity", "Price", "Cost Basis", "Queue"}

// OpenLots returns one row per lot still held, position by position. Lots
// waiting in a withdrawal queue are listed with Queue "withdrawn".
func OpenLots(positions []*ledger.Position) [][]string {
	var rows [][]string
	for _, p := range positions {
		rows = appendLots(rows, p.Asset, "held", p.Lots)
		rows = appendLots(rows, p.Asset, "withdrawn", p.WithdrawalLots)
	}
	return rows
}

func appendLots(rows [][]string, asset, queue string, q *ledger.LotQueue) [][]string {
	if q == nil {
		return rows
	}
	for _, lot := range q.Lots() {
		acquired := ""
		if !lot.Acquired.IsZero() {
			acquired = lot.Acquired.Format(AcquiredDateLayout)
		}
		rows = append(rows, []string{
			asset,
			acquired,
			lot.Quantity.String(),
			lot.PricePerUnit.StringFixed(2),
			lot.CostBasis.StringFixed(2),
			queue,
		})
	}
	return rows
}
