package reporting

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
)

type productsStub struct {
	products []models.Product
	err      error
}

func (p productsStub) List(context.Context) ([]models.Product, error) { return p.products, p.err }

type salesStub struct {
	sales []models.Sale
	err   error
}

func (s salesStub) List(context.Context) ([]models.Sale, error) { return s.sales, s.err }

type archiveStub struct {
	saved []models.DailyReport
	err   error
}

func (a *archiveStub) SaveDailyReport(_ context.Context, r models.DailyReport) error {
	a.saved = append(a.saved, r)
	return a.err
}

func (a *archiveStub) ListDailyReports(_ context.Context, limit int64) ([]models.DailyReport, error) {
	if int64(len(a.saved)) > limit {
		return a.saved[:limit], a.err
	}
	return a.saved, a.err
}

var jakarta = time.FixedZone("WIB", 7*3600)

func ledgerFixture() []models.Sale {
	return []models.Sale{
		{ID: "1", Date: time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(10000), Items: []models.SaleItem{{Barcode: "899", Quantity: 2}}},
		{ID: "2", Date: time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(30000), Items: []models.SaleItem{{Barcode: "899", Quantity: 1}}},
		{ID: "3", Date: time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(5000), Items: []models.SaleItem{{Barcode: "777", Quantity: 1}}},
		{ID: "4", Date: time.Date(2024, 2, 3, 4, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(7000), Items: []models.SaleItem{{Barcode: "777", Quantity: 3}}},
	}
}

func TestStockReport(t *testing.T) {
	svc := NewService(
		productsStub{products: []models.Product{{Name: "Tea", Barcode: "899", Stock: 1}, {Name: "Rice", Barcode: "777", Stock: 8}}},
		salesStub{sales: ledgerFixture()},
		nil, jakarta, zaptest.NewLogger(t),
	)

	rows, err := svc.StockReport(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Tea", rows[0].Name)
	assert.Equal(t, 3, rows[0].Sold)
	assert.Equal(t, "Rice", rows[1].Name)
	assert.Equal(t, 4, rows[1].Sold)
}

func TestStockReport_PropagatesLoadErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(productsStub{}, salesStub{err: boom}, nil, jakarta, zaptest.NewLogger(t))

	_, err := svc.StockReport(context.Background(), "")
	require.ErrorIs(t, err, boom)
}

func TestSalesReport(t *testing.T) {
	svc := NewService(productsStub{}, salesStub{sales: ledgerFixture()}, nil, jakarta, zaptest.NewLogger(t))

	report, err := svc.SalesReport(context.Background(), Period{Month: 1, Year: 2024})
	require.NoError(t, err)

	// 20:00 UTC on 1 Jan is already 2 Jan in Jakarta.
	assert.Equal(t, map[string]int64{"2024-01-01": 40000, "2024-01-02": 5000}, totals(report.Daily))
	assert.Equal(t, 3, report.Summary.Transactions)
	assert.Equal(t, []int{2024}, report.Years)
	require.NotEmpty(t, report.TopDays)
	assert.Equal(t, "2024-01-01", report.TopDays[0].Date)
	assert.Len(t, report.TopDays, 3)
	require.NotEmpty(t, report.PeakHours)
}

func TestGenerateDailyReport(t *testing.T) {
	archive := &archiveStub{}
	svc := NewService(productsStub{}, salesStub{sales: ledgerFixture()}, archive, jakarta, zaptest.NewLogger(t))

	report, message, err := svc.GenerateDailyReport(context.Background(), time.Date(2024, 1, 1, 14, 0, 0, 0, jakarta))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Transactions)
	assert.Equal(t, 3, report.ItemsSold)
	assert.InDelta(t, 40000, report.Revenue, 0.001)
	assert.InDelta(t, 20000, report.AverageTicket, 0.001)
	assert.Equal(t, 9, report.PeakHour)
	require.Len(t, archive.saved, 1)

	assert.Contains(t, message, "Daily sales (2024-01-01)")
	assert.Contains(t, message, "Transactions: 2")
	assert.Contains(t, message, "40.000")
	assert.Contains(t, message, "Busiest hour: 09:00-10:00")

	recent, err := svc.RecentDailyReports(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestGenerateDailyReport_NoSales(t *testing.T) {
	archive := &archiveStub{err: errors.New("mongo down")}
	svc := NewService(productsStub{}, salesStub{}, archive, jakarta, zaptest.NewLogger(t))

	report, message, err := svc.GenerateDailyReport(context.Background(), time.Date(2024, 3, 1, 12, 0, 0, 0, jakarta))
	require.NoError(t, err)
	assert.Zero(t, report.Transactions)
	assert.Equal(t, -1, report.PeakHour)
	assert.Equal(t, "Daily sales (2024-03-01): no transactions recorded.", message)
}

func TestRecentDailyReports_WithoutArchive(t *testing.T) {
	svc := NewService(productsStub{}, salesStub{}, nil, nil, nil)
	reports, err := svc.RecentDailyReports(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
