package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

// CartHandler serves the shared cart.
type CartHandler struct {
	cart   Cart
	logger *zap.Logger
}

// NewCartHandler constructs the cart adapter.
func NewCartHandler(cart Cart, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{cart: cart, logger: logger}
}

type cartResponse struct {
	Items    []models.CartLine `json:"items"`
	Subtotal string            `json:"subtotal"`
}

func newCartResponse(lines []models.CartLine) cartResponse {
	if lines == nil {
		lines = []models.CartLine{}
	}
	return cartResponse{Items: lines, Subtotal: models.Subtotal(lines).String()}
}

// Get returns the current cart and its subtotal.
func (h *CartHandler) Get(c *gin.Context) {
	lines, err := h.cart.Cart(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(lines))
}

// Stream pushes the cart as server-sent events after every change.
func (h *CartHandler) Stream(c *gin.Context) {
	updates, err := h.cart.Watch(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		lines, ok := <-updates
		if !ok {
			return false
		}
		c.SSEvent("cart", newCartResponse(lines))
		return true
	})
	h.logger.Debug("cart stream closed", zap.String("client_ip", c.ClientIP()))
}

// Add reserves one more unit of the product.
func (h *CartHandler) Add(c *gin.Context) {
	h.respondLine(c, func() (models.CartLine, error) {
		return h.cart.Add(c.Request.Context(), c.Param("productId"))
	})
}

// SetQuantity sets the line to the quantity typed by the cashier.
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req struct {
		Quantity any `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest(err, "invalid request body"))
		return
	}
	input, err := cast.ToStringE(req.Quantity)
	if err != nil {
		respondError(c, h.logger, models.ErrInvalidQuantity)
		return
	}

	h.respondLine(c, func() (models.CartLine, error) {
		return h.cart.SetQuantityInput(c.Request.Context(), c.Param("productId"), input)
	})
}

// Increment adds one unit to an existing line.
func (h *CartHandler) Increment(c *gin.Context) {
	h.respondLine(c, func() (models.CartLine, error) {
		return h.cart.Increment(c.Request.Context(), c.Param("productId"))
	})
}

// Decrement takes one unit off an existing line.
func (h *CartHandler) Decrement(c *gin.Context) {
	h.respondLine(c, func() (models.CartLine, error) {
		return h.cart.Decrement(c.Request.Context(), c.Param("productId"))
	})
}

// Remove drops the line and returns its units to stock.
func (h *CartHandler) Remove(c *gin.Context) {
	if err := h.cart.Remove(c.Request.Context(), c.Param("productId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear empties the cart and returns every reserved unit to stock.
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cart.ClearAll(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) respondLine(c *gin.Context, fn func() (models.CartLine, error)) {
	line, err := fn()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, line)
}
