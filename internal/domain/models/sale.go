package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable ledger entry produced at checkout.
type Sale struct {
	ID           string          `json:"id,omitempty"`
	Date         time.Time       `json:"date"`
	Items        []SaleItem      `json:"items"`
	Total        decimal.Decimal `json:"total"`
	AmountPaid   decimal.Decimal `json:"amountPaid"`
	Change       decimal.Decimal `json:"change"`
	BuyerName    string          `json:"buyerName"`
	BuyerContact string          `json:"whatsappNumber"`
}

// SaleItem is one sold line of a sale.
type SaleItem struct {
	ProductID string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// SaleItemsFromCart freezes the cart lines into sale items, preserving order.
func SaleItemsFromCart(lines []CartLine) []SaleItem {
	items := make([]SaleItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, SaleItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Barcode:   line.Barcode,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	return items
}

// UnitsSold counts the units across all items of the sale.
func (s Sale) UnitsSold() int {
	var units int
	for _, item := range s.Items {
		units += item.Quantity
	}
	return units
}

// LineTotal is unit price × quantity.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
