package formatter

import (
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/cointax/ledger"
)

const (
	// SaleDateLayout formats the sale timestamp.
	SaleDateLayout = "2006-01-02T15:04:05Z07:00"

	// AcquiredDateLayout formats acquisition and receipt timestamps.
	AcquiredDateLayout = "01/02/2006 15:04"
)

// SaleColumns is the header row written by SalesWriter.
var SaleColumns = []string{
	"Date Sold",
	"Date Last Acquired",
	"Last Purchase Price",
	"Quantity",
	"Asset",
	"Spot Price",
	"Original Cost",
	"Currency",
	"Cost Basis",
	"Total",
	"Gains",
	"Fees",
}

// IncomeColumns is the header row written by IncomeWriter.
var IncomeColumns = []string{
	"Date Received",
	"Quantity",
	"Asset",
	"Spot Price",
	"Currency",
	"Total",
	"Fees",
}

func money2(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// SalesWriter writes realized sales as CSV rows.
type SalesWriter struct {
	w      *csv.Writer
	header bool
}

// NewSalesWriter creates a SalesWriter. The header is written with the first
// row, or by Flush when no rows were written.
func NewSalesWriter(w io.Writer) *SalesWriter {
	return &SalesWriter{w: csv.NewWriter(w)}
}

func (s *SalesWriter) writeHeader() error {
	if s.header {
		return nil
	}
	s.header = true
	return s.w.Write(SaleColumns)
}

// Write appends one sale.
func (s *SalesWriter) Write(sale ledger.RealizedSale) error {
	if err := s.writeHeader(); err != nil {
		return err
	}

	lastAcquired := ""
	if !sale.LastAcquired.IsZero() {
		lastAcquired = sale.LastAcquired.Format(AcquiredDateLayout)
	}

	return s.w.Write([]string{
		sale.DateSold.Format(SaleDateLayout),
		lastAcquired,
		sale.LastPurchasePrice.String(),
		sale.Quantity.String(),
		sale.Asset,
		sale.SpotPrice.String(),
		money2(sale.OriginalCost),
		sale.Currency,
		money2(sale.CostBasis),
		money2(sale.Total),
		money2(sale.Gains),
		money2(sale.Fees),
	})
}

// WriteAll writes every sale and flushes.
func (s *SalesWriter) WriteAll(sales []ledger.RealizedSale) error {
	for _, sale := range sales {
		if err := s.Write(sale); err != nil {
			return err
		}
	}
	return s.Flush()
}

// Flush writes buffered rows to the underlying writer.
func (s *SalesWriter) Flush() error {
	if err := s.writeHeader(); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Error reports any error from a previous Write or Flush.
func (s *SalesWriter) Error() error {
	return s.w.Error()
}

// IncomeWriter writes income records as CSV rows.
type IncomeWriter struct {
	w      *csv.Writer
	header bool
}

// NewIncomeWriter creates an IncomeWriter.
func NewIncomeWriter(w io.Writer) *IncomeWriter {
	return &IncomeWriter{w: csv.NewWriter(w)}
}

func (i *IncomeWriter) writeHeader() error {
	if i.header {
		return nil
	}
	i.header = true
	return i.w.Write(IncomeColumns)
}

// Write appends one income record.
func (i *IncomeWriter) Write(r ledger.IncomeRecord) error {
	if err := i.writeHeader(); err != nil {
		return err
	}
	return i.w.Write([]string{
		r.DateReceived.Format(AcquiredDateLayout),
		r.Quantity.String(),
		r.Asset,
		r.SpotPrice.String(),
		r.Currency,
		money2(r.Total),
		money2(r.Fees),
	})
}

// WriteAll writes every record and flushes.
func (i *IncomeWriter) WriteAll(records []ledger.IncomeRecord) error {
	for _, r := range records {
		if err := i.Write(r); err != nil {
			return err
		}
	}
	return i.Flush()
}

func (i *IncomeWriter) Flush() error {
	if err := i.writeHeader(); err != nil {
		return err
	}
	i.w.Flush()
	return i.w.Error()
}

func (i *IncomeWriter) Error() error {
	return i.w.Error()
}
