package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/server/handlers"
)

// Handlers groups every HTTP adapter the router mounts.
type Handlers struct {
	Products *handlers.ProductHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Reports  *handlers.ReportHandler
	Gate     *handlers.GateHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	guarded := h.Gate.Require()

	r.GET("/rules", h.Gate.ListRules)
	r.POST("/rules/verify", h.Gate.Verify)

	r.GET("/products", h.Products.List)
	r.POST("/products", guarded, h.Products.Create)
	r.PUT("/products/:barcode/stock", guarded, h.Products.UpdateStock)
	r.DELETE("/products/:barcode", guarded, h.Products.Delete)

	cart := r.Group("/cart")
	cart.GET("", h.Cart.Get)
	cart.GET("/stream", h.Cart.Stream)
	cart.DELETE("", h.Cart.Clear)
	cart.POST("/items/:productId", h.Cart.Add)
	cart.PUT("/items/:productId", h.Cart.SetQuantity)
	cart.POST("/items/:productId/increment", h.Cart.Increment)
	cart.POST("/items/:productId/decrement", h.Cart.Decrement)
	cart.DELETE("/items/:productId", h.Cart.Remove)

	r.POST("/checkout", h.Checkout.Checkout)
	r.GET("/sales/:id/receipt", h.Checkout.Receipt)
	r.POST("/sales/:id/receipt/send", h.Checkout.SendReceipt)

	reports := r.Group("/reports", guarded)
	reports.GET("/stock", h.Reports.Stock)
	reports.GET("/sales", h.Reports.Sales)
	reports.GET("/daily", h.Reports.DailyReports)
	reports.POST("/daily", h.Reports.RunDailyReport)

	logger.Info("router initialized")
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
