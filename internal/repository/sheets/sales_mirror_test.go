package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

type fakeRepo struct {
	ranges []string
	rows   [][]interface{}
	err    error
}

func (f *fakeRepo) AppendRow(_ context.Context, sheetRange string, values []interface{}) error {
	f.ranges = append(f.ranges, sheetRange)
	f.rows = append(f.rows, values)
	return f.err
}

func TestSalesMirror_AppendSale(t *testing.T) {
	repo := &fakeRepo{}
	jakarta := time.FixedZone("WIB", 7*3600)
	mirror := NewSalesMirror(repo, jakarta)

	sale := models.Sale{
		ID:   "s1",
		Date: time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC),
		Items: []models.SaleItem{
			{Name: "Tea", Quantity: 2},
			{Name: "Rice", Quantity: 1},
		},
		Total:        decimal.NewFromInt(25000),
		AmountPaid:   decimal.NewFromInt(30000),
		Change:       decimal.NewFromInt(5000),
		BuyerName:    "Sari",
		BuyerContact: "08123",
	}
	require.NoError(t, mirror.AppendSale(context.Background(), sale))

	require.Equal(t, []string{SalesRange}, repo.ranges)
	assert.Equal(t, []interface{}{
		"2024-01-02 09:00:00", "s1", "Sari", "08123", "Tea x2, Rice x1", "25000", "30000", "5000",
	}, repo.rows[0])
}

func TestSalesMirror_WrapsError(t *testing.T) {
	mirror := NewSalesMirror(&fakeRepo{err: errors.New("quota")}, nil)
	err := mirror.AppendSale(context.Background(), models.Sale{ID: "s9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s9")
}
