package currency

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const symbol = "Rp"

var printer = message.NewPrinter(language.Indonesian)

// Format renders an amount as rupiah without decimals, e.g. "Rp 30.000".
func Format(amount decimal.Decimal) string {
	rounded := amount.Round(0).IntPart()
	if rounded < 0 {
		return "-" + symbol + " " + printer.Sprintf("%d", -rounded)
	}
	return symbol + " " + printer.Sprintf("%d", rounded)
}

// ParseAmount reads a cashier-entered amount. Group separators ("." and ",")
// and the currency symbol are ignored, so "30.000" and "Rp 30,000" both read
// as 30000. The boolean is false when nothing numeric could be read; the
// returned amount is then zero.
func ParseAmount(input string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(input)
	cleaned = strings.TrimPrefix(cleaned, symbol)
	cleaned = strings.NewReplacer(".", "", ",", "", " ", "", "\u00a0", "").Replace(cleaned)
	if cleaned == "" {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
