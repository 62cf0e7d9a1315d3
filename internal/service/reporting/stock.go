package reporting

import (
	"sort"
	"strings"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

// lowStockThreshold is the remaining quantity below which a product counts as low.
const lowStockThreshold = 2

// BuildStockReport joins the catalog with the ledger by barcode. Live stock is
// already net of every sale, so sold units are only reported, never subtracted.
// Rows are ordered out of stock first, then low, then normal, by name within a rank.
func BuildStockReport(products []models.Product, sales []models.Sale, query string) []models.StockStatus {
	sold := make(map[string]int)
	for _, sale := range sales {
		for _, item := range sale.Items {
			if item.Barcode == "" {
				continue
			}
			sold[item.Barcode] += item.Quantity
		}
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	seen := make(map[string]struct{}, len(products))
	rows := make([]models.StockStatus, 0, len(products))
	for _, p := range products {
		if p.Barcode == "" {
			continue
		}
		if _, dup := seen[p.Barcode]; dup {
			continue
		}
		seen[p.Barcode] = struct{}{}

		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}

		rank := rankOf(p.Stock)
		rows = append(rows, models.StockStatus{
			Barcode:   p.Barcode,
			Name:      p.Name,
			Stock:     p.Stock,
			Sold:      sold[p.Barcode],
			Remaining: p.Stock,
			Rank:      rank,
			Status:    rank.String(),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rank != rows[j].Rank {
			return rows[i].Rank < rows[j].Rank
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func rankOf(remaining int) models.StockRank {
	switch {
	case remaining <= 0:
		return models.RankOutOfStock
	case remaining < lowStockThreshold:
		return models.RankLow
	default:
		return models.RankNormal
	}
}
