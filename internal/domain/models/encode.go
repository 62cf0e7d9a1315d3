package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Documents are written with plain JSON numbers for money and quantities so
// every client reads them the same way.

// EncodeProduct renders a product node. The storage key is not repeated inside the document.
func EncodeProduct(p Product) ([]byte, error) {
	return json.Marshal(map[string]any{
		"name":         p.Name,
		"barcode":      p.Barcode,
		"regularPrice": number(p.UnitPrice),
		"stock":        p.Stock,
	})
}

// EncodeCartLine renders a cart line node.
func EncodeCartLine(l CartLine) ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":       l.ProductID,
		"name":     l.Name,
		"barcode":  l.Barcode,
		"price":    number(l.UnitPrice),
		"quantity": l.Quantity,
		"total":    number(l.Total),
	})
}

// EncodeSale renders a ledger entry.
func EncodeSale(s Sale) ([]byte, error) {
	items := make([]map[string]any, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, map[string]any{
			"id":       item.ProductID,
			"name":     item.Name,
			"barcode":  item.Barcode,
			"price":    number(item.UnitPrice),
			"quantity": item.Quantity,
		})
	}

	return json.Marshal(map[string]any{
		"date":           s.Date.UTC().Format(time.RFC3339Nano),
		"items":          items,
		"total":          number(s.Total),
		"amountPaid":     number(s.AmountPaid),
		"change":         number(s.Change),
		"buyerName":      s.BuyerName,
		"whatsappNumber": s.BuyerContact,
	})
}

// PatchDocument overwrites fields of a stored document and keeps everything
// else, including fields this service does not know about.
func PatchDocument(raw []byte, fields map[string]any) ([]byte, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("patch document: %w", err)
	}
	for k, v := range fields {
		if d, ok := v.(decimal.Decimal); ok {
			v = number(d)
		}
		doc[k] = v
	}
	return json.Marshal(doc)
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
