package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/internal/service/ledger"
)

// CheckoutHandler turns the shared cart into a sale and serves receipts.
type CheckoutHandler struct {
	cart     Cart
	ledger   Ledger
	receipts Receipts
	logger   *zap.Logger
}

// NewCheckoutHandler constructs the checkout adapter.
func NewCheckoutHandler(cart Cart, ledger Ledger, receipts Receipts, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{cart: cart, ledger: ledger, receipts: receipts, logger: logger}
}

type checkoutRequest struct {
	BuyerName    string `json:"buyerName"`
	BuyerContact string `json:"buyerContact"`
	AmountPaid   any    `json:"amountPaid"`
}

type checkoutResponse struct {
	Sale    *models.Sale   `json:"sale"`
	Receipt models.Receipt `json:"receipt"`
}

// Checkout finalizes the current cart and settles the sold lines. Only one
// terminal at a time may check out, so the same lines are never sold twice.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest(err, "invalid request body"))
		return
	}

	ctx := c.Request.Context()
	release, err := h.cart.ClaimCheckout(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer release()

	lines, err := h.cart.Cart(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sale, err := h.ledger.Finalize(ctx, ledger.FinalizeRequest{
		Lines:        lines,
		BuyerName:    req.BuyerName,
		BuyerContact: req.BuyerContact,
		AmountPaid:   cast.ToString(req.AmountPaid),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	// The sale is recorded; a settle failure leaves lines behind for a manual clear.
	if err := h.cart.Settle(ctx, lines); err != nil {
		h.logger.Error("failed to settle cart after checkout", zap.String("sale_id", sale.ID), zap.Error(err))
	}

	c.JSON(http.StatusCreated, checkoutResponse{Sale: sale, Receipt: h.receipts.Receipt(*sale)})
}

// Receipt renders the receipt of a recorded sale.
func (h *CheckoutHandler) Receipt(c *gin.Context) {
	sale, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.receipts.Receipt(*sale))
}

// SendReceipt delivers the receipt of a recorded sale over WhatsApp.
func (h *CheckoutHandler) SendReceipt(c *gin.Context) {
	ctx := c.Request.Context()
	sale, err := h.ledger.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.receipts.SendReceipt(ctx, *sale); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusAccepted)
}
