package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/core/errx"
	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/internal/service/catalog"
	"github.com/mamadbah2/kasir/internal/service/ledger"
	"github.com/mamadbah2/kasir/internal/service/reporting"
)

// Catalog is the product surface used by the HTTP layer.
type Catalog interface {
	List(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, in catalog.NewProduct) (models.Product, error)
	UpdateStockByBarcode(ctx context.Context, barcode string, stock int) error
	DeleteByBarcode(ctx context.Context, barcode string) error
}

// Cart is the shared cart surface used by the HTTP layer.
type Cart interface {
	Cart(ctx context.Context) ([]models.CartLine, error)
	Watch(ctx context.Context) (<-chan []models.CartLine, error)
	Add(ctx context.Context, productID string) (models.CartLine, error)
	SetQuantityInput(ctx context.Context, productID, input string) (models.CartLine, error)
	Increment(ctx context.Context, productID string) (models.CartLine, error)
	Decrement(ctx context.Context, productID string) (models.CartLine, error)
	Remove(ctx context.Context, productID string) error
	ClearAll(ctx context.Context) error
	Settle(ctx context.Context, sold []models.CartLine) error
	ClaimCheckout(ctx context.Context) (func(), error)
}

// Ledger records and replays sales.
type Ledger interface {
	Finalize(ctx context.Context, req ledger.FinalizeRequest) (*models.Sale, error)
	Get(ctx context.Context, id string) (*models.Sale, error)
}

// Receipts renders and delivers receipts.
type Receipts interface {
	Receipt(sale models.Sale) models.Receipt
	SendReceipt(ctx context.Context, sale models.Sale) error
}

// Reports serves the stock and analytics screens.
type Reports interface {
	StockReport(ctx context.Context, query string) ([]models.StockStatus, error)
	SalesReport(ctx context.Context, period reporting.Period) (reporting.SalesReport, error)
	RecentDailyReports(ctx context.Context, limit int64) ([]models.DailyReport, error)
}

// DailyReportRunner triggers the daily report outside its schedule.
type DailyReportRunner interface {
	RunDailyReport(ctx context.Context) error
}

// RuleGate verifies the shared password protecting stock and analytics.
type RuleGate interface {
	Rules(ctx context.Context) ([]models.Rule, error)
	Verify(ctx context.Context, key, password string) error
}

func badRequest(err error, message string) error {
	return errx.New(err, http.StatusBadRequest, "bad_request", message)
}

// respondError maps err to its HTTP status and writes a JSON error body.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := errx.FromDomain(err)

	fields := []zap.Field{
		zap.Error(err),
		zap.String("path", c.FullPath()),
		zap.Int("status", appErr.Status),
	}
	if appErr.Status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Warn("request rejected", fields...)
	}

	c.AbortWithStatusJSON(appErr.Status, gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}
