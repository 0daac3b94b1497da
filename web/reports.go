package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	cterrors "github.com/robinvdvleuten/cointax/errors"
	"github.com/robinvdvleuten/cointax/ledger"
)

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// StatusResponse describes the loaded report.
type StatusResponse struct {
	Version string               `json:"version,omitempty"`
	Files   []string             `json:"files"`
	Errors  []cterrors.ErrorJSON `json:"errors"`
}

// SaleResponse is one realized sale. Amounts are decimal strings.
type SaleResponse struct {
	DateSold          time.Time       `json:"dateSold"`
	LastAcquired      *time.Time      `json:"lastAcquired,omitempty"`
	LastPurchasePrice decimal.Decimal `json:"lastPurchasePrice"`
	Quantity          decimal.Decimal `json:"quantity"`
	Asset             string          `json:"asset"`
	SpotPrice         decimal.Decimal `json:"spotPrice"`
	OriginalCost      decimal.Decimal `json:"originalCost"`
	Currency          string          `json:"currency"`
	CostBasis         decimal.Decimal `json:"costBasis"`
	Total             decimal.Decimal `json:"total"`
	Gains             decimal.Decimal `json:"gains"`
	Fees              decimal.Decimal `json:"fees"`
}

// IncomeResponse is one income record.
type IncomeResponse struct {
	DateReceived time.Time       `json:"dateReceived"`
	Quantity     decimal.Decimal `json:"quantity"`
	Asset        string          `json:"asset"`
	SpotPrice    decimal.Decimal `json:"spotPrice"`
	Currency     string          `json:"currency"`
	Total        decimal.Decimal `json:"total"`
	Fees         decimal.Decimal `json:"fees"`
}

// SummaryResponse holds the per-year totals.
type SummaryResponse struct {
	Currency    string          `json:"currency"`
	Years       []YearResponse  `json:"years"`
	TotalGains  decimal.Decimal `json:"totalGains"`
	TotalIncome decimal.Decimal `json:"totalIncome"`
}

// YearResponse is the net result of one calendar year.
type YearResponse struct {
	Year  int             `json:"year"`
	Sales int             `json:"sales"`
	Gains decimal.Decimal `json:"gains"`
}

// PositionResponse is the final state of one asset.
type PositionResponse struct {
	Asset          string          `json:"asset"`
	Balance        decimal.Decimal `json:"balance"`
	CostBasis      decimal.Decimal `json:"costBasis"`
	LastAcquired   *time.Time      `json:"lastAcquired,omitempty"`
	Lots           []LotResponse   `json:"lots"`
	WithdrawalLots []LotResponse   `json:"withdrawalLots"`
}

// LotResponse is one held or withdrawn lot.
type LotResponse struct {
	Acquired     *time.Time      `json:"acquired,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	CostBasis    decimal.Decimal `json:"costBasis"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// filter holds the query parameters shared by the record endpoints.
//
// Query parameters:
//   - year: Only records dated in this calendar year.
//   - asset: Only records of this asset (case-insensitive).
type filter struct {
	year  int
	asset string
}

func parseFilter(r *http.Request) (filter, error) {
	var f filter
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return f, err
		}
		f.year = year
	}
	f.asset = strings.TrimSpace(r.URL.Query().Get("asset"))
	return f, nil
}

func (f filter) match(ts time.Time, asset string) bool {
	if f.year != 0 && ts.Year() != f.year {
		return false
	}
	if f.asset != "" && !strings.EqualFold(f.asset, asset) {
		return false
	}
	return true
}

// snapshot returns the current report under the read lock.
func (s *Server) snapshot() (*ledger.Result, []string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.result
	if result == nil {
		result = &ledger.Result{}
	}
	return result, s.files, s.err
}

// handleGetStatus handles GET requests to /api/status.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	_, files, err := s.snapshot()

	errs := []cterrors.ErrorJSON{}
	if err != nil {
		errs = cterrors.NewJSONFormatter().FormatAllToSlice([]error{err})
	}
	if files == nil {
		files = []string{}
	}

	writeJSONResponse(w, &StatusResponse{
		Version: s.Version,
		Files:   files,
		Errors:  errs,
	})
}

// handleGetSales handles GET requests to /api/sales.
func (s *Server) handleGetSales(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		http.Error(w, "invalid year: "+r.URL.Query().Get("year"), http.StatusBadRequest)
		return
	}

	result, _, _ := s.snapshot()

	sales := make([]SaleResponse, 0, len(result.Sales))
	for _, sale := range result.Sales {
		if !f.match(sale.DateSold, sale.Asset) {
			continue
		}
		sales = append(sales, SaleResponse{
			DateSold:          sale.DateSold,
			LastAcquired:      optionalTime(sale.LastAcquired),
			LastPurchasePrice: sale.LastPurchasePrice,
			Quantity:          sale.Quantity,
			Asset:             sale.Asset,
			SpotPrice:         sale.SpotPrice,
			OriginalCost:      sale.OriginalCost,
			Currency:          sale.Currency,
			CostBasis:         sale.CostBasis,
			Total:             sale.Total,
			Gains:             sale.Gains,
			Fees:              sale.Fees,
		})
	}

	writeJSONResponse(w, sales)
}

// handleGetIncome handles GET requests to /api/income.
func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		http.Error(w, "invalid year: "+r.URL.Query().Get("year"), http.StatusBadRequest)
		return
	}

	result, _, _ := s.snapshot()

	income := make([]IncomeResponse, 0, len(result.Income))
	for _, rec := range result.Income {
		if !f.match(rec.DateReceived, rec.Asset) {
			continue
		}
		income = append(income, IncomeResponse{
			DateReceived: rec.DateReceived,
			Quantity:     rec.Quantity,
			Asset:        rec.Asset,
			SpotPrice:    rec.SpotPrice,
			Currency:     rec.Currency,
			Total:        rec.Total,
			Fees:         rec.Fees,
		})
	}

	writeJSONResponse(w, income)
}

// handleGetSummary handles GET requests to /api/summary.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	result, _, _ := s.snapshot()

	totals := ledger.SummarizeByYear(result.Sales)
	years := make([]YearResponse, len(totals))
	for i, y := range totals {
		years[i] = YearResponse{Year: y.Year, Sales: y.Sales, Gains: y.Gains}
	}

	writeJSONResponse(w, &SummaryResponse{
		Currency:    s.Currency,
		Years:       years,
		TotalGains:  ledger.TotalGains(result.Sales),
		TotalIncome: ledger.TotalIncome(result.Income),
	})
}

// handleGetPositions handles GET requests to /api/positions.
// The asset query parameter limits the response to one asset.
func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	result, _, _ := s.snapshot()
	asset := strings.TrimSpace(r.URL.Query().Get("asset"))

	positions := make([]PositionResponse, 0, len(result.Positions))
	for _, p := range result.Positions {
		if asset != "" && !strings.EqualFold(asset, p.Asset) {
			continue
		}
		positions = append(positions, PositionResponse{
			Asset:          p.Asset,
			Balance:        p.Balance,
			CostBasis:      p.CostBasis(),
			LastAcquired:   optionalTime(p.LastAcquired),
			Lots:           convertLots(p.Lots),
			WithdrawalLots: convertLots(p.WithdrawalLots),
		})
	}

	writeJSONResponse(w, positions)
}

func convertLots(q *ledger.LotQueue) []LotResponse {
	lots := []LotResponse{}
	if q == nil {
		return lots
	}
	for _, lot := range q.Lots() {
		lots = append(lots, LotResponse{
			Acquired:     optionalTime(lot.Acquired),
			Quantity:     lot.Quantity,
			PricePerUnit: lot.PricePerUnit,
			CostBasis:    lot.CostBasis,
		})
	}
	return lots
}

// handleGetShortfalls handles GET requests to /api/shortfalls.
func (s *Server) handleGetShortfalls(w http.ResponseWriter, r *http.Request) {
	result, _, _ := s.snapshot()

	errs := make([]error, len(result.Shortfalls))
	for i, sf := range result.Shortfalls {
		errs[i] = sf
	}

	writeJSONResponse(w, cterrors.NewJSONFormatter().FormatAllToSlice(errs))
}
