package parser

import (
	"fmt"
	"strings"
)

// Format identifies the layout of an export.
type Format int

const (
	// FormatAuto detects the layout from the header row.
	FormatAuto Format = iota
	// FormatCoinbase is the Coinbase transaction history report.
	FormatCoinbase
	// FormatCoinbaseProFills is the Coinbase Pro fills report.
	FormatCoinbaseProFills
	// FormatCoinbaseProAccount is the Coinbase Pro account statement.
	FormatCoinbaseProAccount
)

var formatNames = map[Format]string{
	FormatAuto:               "auto",
	FormatCoinbase:           "coinbase",
	FormatCoinbaseProFills:   "coinbase-pro-fills",
	FormatCoinbaseProAccount: "coinbase-pro-account",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses a format name as printed by String.
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return FormatAuto, nil
	}
	for f, name := range formatNames {
		if name == key {
			return f, nil
		}
	}
	return FormatAuto, fmt.Errorf("unknown format %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// required lists the columns a header must contain for each format.
// Names are compared after normalizeHeader.
var required = map[Format][]string{
	FormatCoinbase:           {"timestamp", "transaction type", "asset", "quantity transacted"},
	FormatCoinbaseProFills:   {"trade id", "side", "created at", "size", "size unit", "price"},
	FormatCoinbaseProAccount: {"type", "time", "amount", "amount/balance unit"},
}

// detectOrder tries the most specific layouts first.
var detectOrder = []Format{FormatCoinbaseProFills, FormatCoinbaseProAccount, FormatCoinbase}

// header maps normalized column names to their index.
type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		h[normalizeHeader(name)] = i
	}
	return h
}

func normalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

// has reports whether every column is present.
func (h header) has(names ...string) bool {
	for _, name := range names {
		if _, ok := h[name]; !ok {
			return false
		}
	}
	return true
}

// index returns the position of the first column whose name starts with
// prefix. Coinbase has renamed "Total (inclusive of fees)" and "Fees" over
// time, so those columns are located by prefix.
func (h header) index(prefix string) (int, bool) {
	if i, ok := h[prefix]; ok {
		return i, true
	}
	best := -1
	for name, i := range h {
		if strings.HasPrefix(name, prefix) && (best == -1 || i < best) {
			best = i
		}
	}
	return best, best >= 0
}

// Detect returns the format whose required columns all appear in row.
func Detect(row []string) (Format, bool) {
	h := newHeader(row)
	for _, f := range detectOrder {
		if h.has(required[f]...) {
			return f, true
		}
	}
	return FormatAuto, false
}
