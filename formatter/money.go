package formatter

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a record carries no currency.
const DefaultCurrency = "USD"

// FormatMoney renders amount in the display format of currency, for example
// "$1,234.56" for USD. Codes go-money does not know fall back to the amount
// with two decimals followed by the code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	if code == "" {
		code = DefaultCurrency
	}

	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}

	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}

// currencyOf returns currency, or the default when it is blank.
func currencyOf(currency string) string {
	if currency == "" {
		return DefaultCurrency
	}
	return strings.ToUpper(currency)
}
