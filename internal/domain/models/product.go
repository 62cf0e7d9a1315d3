package models

import "github.com/shopspring/decimal"

// Product is a catalog entry. ID is the storage key, which may differ from the barcode.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	UnitPrice decimal.Decimal `json:"regularPrice"`
	Stock     int             `json:"stock"`
}

// Available reports whether at least one unit can still be reserved.
func (p Product) Available() bool {
	return p.Stock > 0
}
