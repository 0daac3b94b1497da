package ledger

import (
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// YearTotal is the net result of the sales of one calendar year.
type YearTotal struct {
	Year  int
	Gains decimal.Decimal
	Sales int
}

// IsLoss reports whether the year closed with a net loss.
func (y YearTotal) IsLoss() bool {
	return y.Gains.IsNegative()
}

// SummarizeByYear sums gains per calendar year of the sale date, in year order.
func SummarizeByYear(sales []RealizedSale) []YearTotal {
	byYear := make(map[int]*YearTotal)
	for _, s := range sales {
		year := s.DateSold.Year()
		total, ok := byYear[year]
		if !ok {
			total = &YearTotal{Year: year}
			byYear[year] = total
		}
		total.Gains = total.Gains.Add(s.Gains)
		total.Sales++
	}

	out := make([]YearTotal, 0, len(byYear))
	for _, total := range byYear {
		out = append(out, *total)
	}
	slices.SortFunc(out, func(a, b YearTotal) int {
		return a.Year - b.Year
	})
	return out
}

// TotalGains sums the gains of every sale.
func TotalGains(sales []RealizedSale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.Gains)
	}
	return total
}

// TotalIncome sums the value of every income record.
func TotalIncome(income []IncomeRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range income {
		total = total.Add(r.Total)
	}
	return total
}
