package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/config"
	"github.com/mamadbah2/kasir/internal/repository/mongodb"
	"github.com/mamadbah2/kasir/internal/repository/realtime"
	"github.com/mamadbah2/kasir/internal/repository/sheets"
	"github.com/mamadbah2/kasir/internal/scheduler"
	"github.com/mamadbah2/kasir/internal/server/handlers"
	"github.com/mamadbah2/kasir/internal/server/router"
	authsvc "github.com/mamadbah2/kasir/internal/service/auth"
	catalogsvc "github.com/mamadbah2/kasir/internal/service/catalog"
	ledgersvc "github.com/mamadbah2/kasir/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/kasir/internal/service/reporting"
	"github.com/mamadbah2/kasir/internal/service/reservation"
	whatsappsvc "github.com/mamadbah2/kasir/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/kasir/pkg/clients/whatsapp"
	"github.com/mamadbah2/kasir/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := realtime.Open(ctx, cfg.Store, cfg.Redis, logger.Named(baseLogger, "repo.realtime"))
	if err != nil {
		baseLogger.Fatal("failed to init realtime store", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			baseLogger.Error("failed to close realtime store", zap.Error(err))
		}
	}()
	baseLogger.Info("realtime store ready", zap.String("driver", cfg.Store.Driver), zap.String("cart_id", cfg.Store.CartID))

	var mirror ledgersvc.Mirror
	if cfg.Sheets.Enabled() {
		appender, err := sheets.NewGoogleSheetAppender(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		mirror = sheets.NewSalesMirror(appender, loc)
	} else {
		baseLogger.Warn("google sheets not configured, sales mirror disabled")
	}

	var archive reportingsvc.Archive
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named(baseLogger, "repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
	} else {
		baseLogger.Warn("mongodb not configured, daily reports are not archived")
	}

	var whatsClient whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp, baseLogger)
		baseLogger.Info("whatsapp delivery enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, receipts can only be shared by link")
	}

	catalogSvc := catalogsvc.NewService(store, baseLogger)
	engine := reservation.NewEngine(store, cfg.Store.CartID, baseLogger)
	ledgerSvc := ledgersvc.NewService(store, mirror, baseLogger)
	reportingSvc := reportingsvc.NewService(catalogSvc, ledgerSvc, archive, loc, logger.Named(baseLogger, "svc.reporting"))
	gate := authsvc.NewService(store, baseLogger)
	receipts := whatsappsvc.NewReceiptService(cfg.WhatsApp, whatsClient, loc, baseLogger)

	sched := scheduler.NewScheduler(scheduler.Options{
		Schedule:  cfg.Reporting.CronSchedule,
		Location:  loc,
		ManagerID: cfg.WhatsApp.ManagerID,
	}, reportingSvc, receipts, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	handlerLogger := logger.Named(baseLogger, "handlers")
	engineHTTP := router.New(router.Handlers{
		Products: handlers.NewProductHandler(catalogSvc, handlerLogger),
		Cart:     handlers.NewCartHandler(engine, handlerLogger),
		Checkout: handlers.NewCheckoutHandler(engine, ledgerSvc, receipts, handlerLogger),
		Reports:  handlers.NewReportHandler(reportingSvc, sched, handlerLogger),
		Gate:     handlers.NewGateHandler(gate, handlerLogger),
	}, logger.Named(baseLogger, "router"))

	// No write timeout: /cart/stream holds its response open.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engineHTTP,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
