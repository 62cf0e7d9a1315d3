package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxQuantity bounds stock and cart quantities. Larger values are treated as invalid.
const MaxQuantity = math.MaxInt32

var maxQuantity = decimal.NewFromInt(MaxQuantity)

// QuantityInRange reports whether d is a whole number that fits a stock or cart quantity.
func QuantityInRange(d decimal.Decimal) bool {
	return d.IsInteger() && d.Abs().LessThanOrEqual(maxQuantity)
}

// CartLine is a reservation held against a product's stock in the shared cart.
type CartLine struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// NewCartLine opens a line for the product with a single reserved unit.
func NewCartLine(p Product) CartLine {
	line := CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Barcode:   p.Barcode,
		UnitPrice: p.UnitPrice,
	}
	return line.WithQuantity(1)
}

// WithQuantity returns a copy of the line carrying the new quantity and a recomputed total.
func (l CartLine) WithQuantity(quantity int) CartLine {
	l.Quantity = quantity
	l.Total = l.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return l
}

// Subtotal sums unit price times quantity over the lines. Malformed values are
// normalized to zero when decoded, so they contribute nothing.
func Subtotal(lines []CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}
