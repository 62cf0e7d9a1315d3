package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/internal/repository/realtime"
)

type recordingMirror struct {
	sales []models.Sale
	err   error
}

func (m *recordingMirror) AppendSale(_ context.Context, sale models.Sale) error {
	m.sales = append(m.sales, sale)
	return m.err
}

func line(id string, price int64, qty int) models.CartLine {
	return models.NewCartLine(models.Product{ID: id, Name: "Item " + id, Barcode: id, UnitPrice: decimal.NewFromInt(price)}).WithQuantity(qty)
}

func newTestLedger(t *testing.T, mirror Mirror) (*Service, realtime.Store) {
	t.Helper()
	store := realtime.NewMemoryStore(0, zaptest.NewLogger(t))
	svc := NewService(store, mirror, zaptest.NewLogger(t))
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC) }
	return svc, store
}

func TestFinalize_ComputesChange(t *testing.T) {
	ctx := context.Background()
	mirror := &recordingMirror{}
	svc, _ := newTestLedger(t, mirror)

	sale, err := svc.Finalize(ctx, FinalizeRequest{
		Lines:        []models.CartLine{line("a", 10000, 2), line("b", 5000, 1)},
		BuyerName:    " Sari ",
		BuyerContact: "08123",
		AmountPaid:   "30.000",
	})
	require.NoError(t, err)
	require.NotEmpty(t, sale.ID)
	assert.True(t, decimal.NewFromInt(25000).Equal(sale.Total), "total %s", sale.Total)
	assert.True(t, decimal.NewFromInt(30000).Equal(sale.AmountPaid))
	assert.True(t, decimal.NewFromInt(5000).Equal(sale.Change), "change %s", sale.Change)
	assert.Equal(t, "Sari", sale.BuyerName)
	assert.Equal(t, 3, sale.UnitsSold())

	stored, err := svc.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(stored.Total))
	assert.True(t, sale.Change.Equal(stored.Change))
	assert.Equal(t, "08123", stored.BuyerContact)
	assert.True(t, sale.Date.Equal(stored.Date))
	require.Len(t, stored.Items, 2)
	assert.Equal(t, 2, stored.Items[0].Quantity)

	require.Len(t, mirror.sales, 1)
	assert.Equal(t, sale.ID, mirror.sales[0].ID)
}

func TestFinalize_Rejections(t *testing.T) {
	cart := []models.CartLine{line("a", 10000, 2), line("b", 5000, 1)}
	tests := []struct {
		name string
		req  FinalizeRequest
		want error
	}{
		{name: "empty cart", req: FinalizeRequest{BuyerName: "Sari", BuyerContact: "1", AmountPaid: "1000"}, want: models.ErrEmptyCart},
		{name: "only zero lines", req: FinalizeRequest{Lines: []models.CartLine{line("a", 100, 0)}, BuyerName: "Sari", BuyerContact: "1", AmountPaid: "1000"}, want: models.ErrEmptyCart},
		{name: "missing amount", req: FinalizeRequest{Lines: cart, BuyerName: "Sari", BuyerContact: "1"}, want: models.ErrInvalidPayment},
		{name: "unparsable amount", req: FinalizeRequest{Lines: cart, BuyerName: "Sari", BuyerContact: "1", AmountPaid: "lots"}, want: models.ErrInvalidPayment},
		{name: "underpaid", req: FinalizeRequest{Lines: cart, BuyerName: "Sari", BuyerContact: "1", AmountPaid: "24.999"}, want: models.ErrInvalidPayment},
		{name: "blank name", req: FinalizeRequest{Lines: cart, BuyerName: "  ", BuyerContact: "1", AmountPaid: "25.000"}, want: models.ErrIncompleteBuyerInfo},
		{name: "blank contact", req: FinalizeRequest{Lines: cart, BuyerName: "Sari", AmountPaid: "25.000"}, want: models.ErrIncompleteBuyerInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestLedger(t, nil)
			_, err := svc.Finalize(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)

			snap, err := store.List(context.Background(), SalesCollection)
			require.NoError(t, err)
			assert.Empty(t, snap)
		})
	}
}

func TestFinalize_ExactPayment(t *testing.T) {
	svc, _ := newTestLedger(t, nil)
	sale, err := svc.Finalize(context.Background(), FinalizeRequest{
		Lines:        []models.CartLine{line("a", 10000, 2), line("b", 5000, 1)},
		BuyerName:    "Sari",
		BuyerContact: "08123",
		AmountPaid:   "Rp 25.000",
	})
	require.NoError(t, err)
	assert.True(t, sale.Change.IsZero())
}

func TestFinalize_MirrorFailureKeepsSale(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLedger(t, &recordingMirror{err: errors.New("quota exceeded")})

	sale, err := svc.Finalize(ctx, FinalizeRequest{
		Lines: []models.CartLine{line("a", 1000, 1)}, BuyerName: "Sari", BuyerContact: "1", AmountPaid: "1000",
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, sale.ID)
	require.NoError(t, err)
}

type brokenStore struct {
	realtime.Store
}

func (brokenStore) Push(context.Context, string, []byte) (string, error) {
	return "", errors.New("connection refused")
}

func TestFinalize_StoreFailure(t *testing.T) {
	svc := NewService(brokenStore{}, nil, zaptest.NewLogger(t))
	_, err := svc.Finalize(context.Background(), FinalizeRequest{
		Lines: []models.CartLine{line("a", 1000, 1)}, BuyerName: "Sari", BuyerContact: "1", AmountPaid: "1000",
	})
	require.ErrorIs(t, err, models.ErrPersistence)
}

func TestList_SortedByDate(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestLedger(t, nil)
	require.NoError(t, store.Set(ctx, "sales/late", []byte(`{"date":"2024-01-03T10:00:00Z","total":"100"}`)))
	require.NoError(t, store.Set(ctx, "sales/early", []byte(`{"date":"2024-01-01T10:00:00Z","total":200,"items":{"-a":{"name":"Tea","price":"100"}}}`)))

	sales, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "early", sales[0].ID)
	assert.Equal(t, "late", sales[1].ID)
	require.Len(t, sales[0].Items, 1)
	assert.Equal(t, 1, sales[0].Items[0].Quantity)
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestLedger(t, nil)
	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, models.ErrSaleNotFound)
}
