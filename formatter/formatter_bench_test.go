package formatter

import (
	"io"
	"testing"
	"time"

	"github.com/robinvdvleuten/cointax/ledger"
)

func benchmarkSales(n int) []ledger.RealizedSale {
	sales := make([]ledger.RealizedSale, n)
	for i := range sales {
		s := sampleSale()
		s.DateSold = s.DateSold.Add(time.Duration(i) * time.Hour)
		sales[i] = s
	}
	return sales
}

func BenchmarkConsoleWriter(b *testing.B) {
	sales := benchmarkSales(1000)
	w := NewConsoleWriter(io.Discard)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := w.WriteSales(sales); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSalesWriter(b *testing.B) {
	sales := benchmarkSales(1000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := NewSalesWriter(io.Discard).WriteAll(sales); err != nil {
			b.Fatal(err)
		}
	}
}
