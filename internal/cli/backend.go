package cli

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/config"
	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/internal/repository/realtime"
	"github.com/mamadbah2/kasir/internal/service/auth"
	"github.com/mamadbah2/kasir/internal/service/catalog"
	"github.com/mamadbah2/kasir/internal/service/ledger"
	"github.com/mamadbah2/kasir/internal/service/reporting"
	"github.com/mamadbah2/kasir/internal/service/reservation"
	"github.com/mamadbah2/kasir/pkg/logger"
)

// Reports is the reporting surface the CLI prints.
type Reports interface {
	StockReport(ctx context.Context, query string) ([]models.StockStatus, error)
	SalesReport(ctx context.Context, period reporting.Period) (reporting.SalesReport, error)
}

// Cart is the cart surface the CLI can repair.
type Cart interface {
	Cart(ctx context.Context) ([]models.CartLine, error)
	ClearAll(ctx context.Context) error
}

// Rules manages the shared passwords.
type Rules interface {
	Rules(ctx context.Context) ([]models.Rule, error)
	SetRule(ctx context.Context, key, ruleType, password string) error
}

// Backend is what a command needs from the running system.
type Backend struct {
	Reports Reports
	Cart    Cart
	Rules   Rules
	Close   func() error
}

// Connector opens a Backend for one command invocation.
type Connector func(ctx context.Context, opts *RootOptions) (*Backend, error)

// Connect opens the store described by the environment and wires the services.
func Connect(ctx context.Context, opts *RootOptions) (*Backend, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	log := zap.NewNop()
	if opts.Verbose {
		log, err = logger.New(logger.Options{Level: "debug", File: cfg.Log.File})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid logger configuration", err)
		}
	}

	loc, err := cfg.Reporting.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid timezone", err)
	}

	store, closeStore, err := realtime.Open(ctx, cfg.Store, cfg.Redis, log.Named("repo.realtime"))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot open store", err)
	}

	catalogSvc := catalog.NewService(store, log)
	ledgerSvc := ledger.NewService(store, nil, log)

	return &Backend{
		Reports: reporting.NewService(catalogSvc, ledgerSvc, nil, loc, log.Named("svc.reporting")),
		Cart:    reservation.NewEngine(store, cfg.Store.CartID, log),
		Rules:   auth.NewService(store, log),
		Close: func() error {
			_ = log.Sync()
			return closeStore()
		},
	}, nil
}

// withBackend opens the backend, runs fn and closes the backend again.
func withBackend(ctx context.Context, opts *RootOptions, connect Connector, fn func(*Backend) error) error {
	backend, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if backend.Close != nil {
			_ = backend.Close()
		}
	}()

	return fn(backend)
}
