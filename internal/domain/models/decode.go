package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Snapshots written by older clients carry prices and quantities either as
// JSON numbers or as strings. Everything read from the store goes through the
// decoders below so the rest of the code only ever sees decimal.Decimal and int.

// DecodeProduct normalizes a product node stored under key.
func DecodeProduct(key string, raw []byte) (Product, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return Product{}, fmt.Errorf("decode product %s: %w", key, err)
	}

	price, ok := doc["regularPrice"]
	if !ok {
		price = doc["price"]
	}

	return Product{
		ID:        key,
		Name:      text(doc["name"]),
		Barcode:   text(doc["barcode"]),
		UnitPrice: amount(price),
		Stock:     quantity(doc["stock"], 0),
	}, nil
}

// DecodeCartLine normalizes a cart line node stored under productID.
func DecodeCartLine(productID string, raw []byte) (CartLine, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return CartLine{}, fmt.Errorf("decode cart line %s: %w", productID, err)
	}

	id := text(doc["id"])
	if id == "" {
		id = productID
	}

	line := CartLine{
		ProductID: id,
		Name:      text(doc["name"]),
		Barcode:   text(doc["barcode"]),
		UnitPrice: amount(doc["price"]),
	}
	return line.WithQuantity(quantity(doc["quantity"], 0)), nil
}

// DecodeSale normalizes a ledger entry. A line without a quantity counts as one unit.
func DecodeSale(id string, raw []byte) (Sale, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return Sale{}, fmt.Errorf("decode sale %s: %w", id, err)
	}

	date := parseTime(text(doc["date"]))

	contact := text(doc["whatsappNumber"])
	if contact == "" {
		contact = text(doc["buyerContact"])
	}

	sale := Sale{
		ID:           id,
		Date:         date,
		Total:        amount(doc["total"]),
		AmountPaid:   amount(doc["amountPaid"]),
		Change:       amount(doc["change"]),
		BuyerName:    text(doc["buyerName"]),
		BuyerContact: contact,
	}

	for _, entry := range collectionValues(doc["items"]) {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		sale.Items = append(sale.Items, SaleItem{
			ProductID: text(item["id"]),
			Name:      text(item["name"]),
			Barcode:   text(item["barcode"]),
			UnitPrice: amount(item["price"]),
			Quantity:  quantity(item["quantity"], 1),
		})
	}

	return sale, nil
}

// DecodeRule reads a rule node.
func DecodeRule(key string, raw []byte) (Rule, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return Rule{}, fmt.Errorf("decode rule %s: %w", key, err)
	}
	return Rule{Key: key, Type: text(doc["type"]), Password: text(doc["password"])}, nil
}

// ParseDecimal converts any snapshot scalar into a decimal, mapping anything
// unparsable, NaN or infinite to zero.
func ParseDecimal(v any) decimal.Decimal {
	return amount(v)
}

func decodeDocument(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case json.Number:
		return t.String()
	default:
		return strings.TrimSpace(cast.ToString(v))
	}
}

func amount(v any) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return t
	case json.Number:
		return fromString(t.String())
	case string:
		return fromString(t)
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func fromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func quantity(v any, missing int) int {
	if v == nil {
		return missing
	}
	d := amount(v)
	if d.Abs().GreaterThan(maxQuantity) {
		return 0
	}
	return int(d.IntPart())
}

// collectionValues accepts both JSON arrays and objects keyed by push id,
// returning object values in key order.
func collectionValues(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		values := make([]any, 0, len(keys))
		for _, k := range keys {
			values = append(values, t[k])
		}
		return values
	default:
		return nil
	}
}
