package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/internal/repository/realtime"
	"github.com/mamadbah2/kasir/internal/service/auth"
	"github.com/mamadbah2/kasir/internal/service/catalog"
	"github.com/mamadbah2/kasir/internal/service/ledger"
	"github.com/mamadbah2/kasir/internal/service/reporting"
	"github.com/mamadbah2/kasir/internal/service/reservation"
)

type fixture struct {
	connect Connector
	catalog *catalog.Service
	engine  *reservation.Engine
	gate    *auth.Service
	closed  *int
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	store := realtime.NewMemoryStore(100, logger)

	catalogSvc := catalog.NewService(store, logger)
	ledgerSvc := ledger.NewService(store, nil, logger)
	engine := reservation.NewEngine(store, reservation.DefaultCartID, logger)
	gate := auth.NewService(store, logger)
	reports := reporting.NewService(catalogSvc, ledgerSvc, nil, time.UTC, logger)

	for _, p := range []catalog.NewProduct{
		{Name: "Salt", Barcode: "555", Price: decimal.NewFromInt(3000), Stock: 0},
		{Name: "Tea", Barcode: "899", Price: decimal.NewFromInt(10000), Stock: 1},
		{Name: "Rice", Barcode: "777", Price: decimal.NewFromInt(5000), Stock: 8},
	} {
		_, err := catalogSvc.CreateProduct(ctx, p)
		require.NoError(t, err)
	}

	_, err := ledgerSvc.Finalize(ctx, ledger.FinalizeRequest{
		Lines: []models.CartLine{
			{ProductID: "899", Name: "Tea", Barcode: "899", UnitPrice: decimal.NewFromInt(10000), Quantity: 2},
			{ProductID: "777", Name: "Rice", Barcode: "777", UnitPrice: decimal.NewFromInt(5000), Quantity: 1},
		},
		BuyerName:    "Budi",
		BuyerContact: "0812",
		AmountPaid:   "30.000",
	})
	require.NoError(t, err)

	closed := new(int)
	connect := func(context.Context, *RootOptions) (*Backend, error) {
		return &Backend{
			Reports: reports,
			Cart:    engine,
			Rules:   gate,
			Close:   func() error { *closed++; return nil },
		}, nil
	}
	return fixture{connect: connect, catalog: catalogSvc, engine: engine, gate: gate, closed: closed}
}

func run(t *testing.T, connect Connector, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(connect)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, path := range [][]string{{"stock"}, {"sales"}, {"cart", "clear"}, {"cart", "show"}, {"rule", "set"}, {"rule", "list"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, FormatText, formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	f := newFixture(t)
	_, err := run(t, f.connect, "stock", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStock_CSVGolden(t *testing.T) {
	f := newFixture(t)
	out, err := run(t, f.connect, "stock", "--format", "csv")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "stock_csv", []byte(out))
	assert.Equal(t, 1, *f.closed)
}

func TestStock_TextAndQuery(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f.connect, "stock")
	require.NoError(t, err)
	assert.Contains(t, out, "BARCODE")
	assert.Contains(t, out, "out_of_stock")

	out, err = run(t, f.connect, "stock", "--query", "te", "--format", "json")
	require.NoError(t, err)
	var rows []models.StockStatus
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Tea", rows[0].Name)
	assert.Equal(t, 2, rows[0].Sold)
}

func TestSales(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f.connect, "sales", "--format", "json")
	require.NoError(t, err)
	var report reporting.SalesReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Summary.Transactions)
	assert.Equal(t, "25000", report.Summary.Revenue.String())

	out, err = run(t, f.connect, "sales")
	require.NoError(t, err)
	assert.Contains(t, out, "Transactions: 1")
	assert.Contains(t, out, "Revenue: Rp 25.000")

	out, err = run(t, f.connect, "sales", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "date,total\n")

	_, err = run(t, f.connect, "sales", "--month", "13")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCartClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Add(ctx, "777")
	require.NoError(t, err)

	out, err := run(t, f.connect, "cart", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Rice")
	assert.Contains(t, out, "Subtotal: Rp 5.000")

	out, err = run(t, f.connect, "cart", "clear")
	require.NoError(t, err)
	assert.Equal(t, "cart cleared\n", out)

	p, err := f.catalog.Product(ctx, "777")
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
}

func TestRuleSetAndList(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f.connect, "rule", "set", "owner", "--type", "Owner", "--password", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, "rule owner saved\n", out)
	require.NoError(t, f.gate.Verify(context.Background(), "owner", "rahasia"))

	out, err = run(t, f.connect, "rule", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "owner")
	assert.NotContains(t, out, "rahasia")

	_, err = run(t, f.connect, "rule", "set", "owner")
	require.Error(t, err)
}

func TestConnectError(t *testing.T) {
	boom := WrapExitError(ExitCommandError, "cannot open store", errors.New("dial tcp"))
	_, err := run(t, func(context.Context, *RootOptions) (*Backend, error) { return nil, boom }, "stock")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
	assert.Equal(t, "msg: cause", WrapExitError(1, "msg", errors.New("cause")).Error())
	assert.Equal(t, "msg", NewExitError(2, "msg").Error())
}
