package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/service/catalog"
)

// ProductHandler serves the catalog.
type ProductHandler struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewProductHandler constructs the catalog adapter.
func NewProductHandler(catalog Catalog, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{catalog: catalog, logger: logger}
}

type createProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	Barcode      string          `json:"barcode" binding:"required"`
	RegularPrice decimal.Decimal `json:"regularPrice"`
	Stock        int             `json:"stock"`
}

type updateStockRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

// List returns every product ordered by name.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Create adds a product keyed by its barcode.
func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest(err, "invalid request body"))
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), catalog.NewProduct{
		Name:    req.Name,
		Barcode: req.Barcode,
		Price:   req.RegularPrice,
		Stock:   req.Stock,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateStock overwrites the stock of the product carrying the barcode.
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	var req updateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest(err, "invalid request body"))
		return
	}

	if err := h.catalog.UpdateStockByBarcode(c.Request.Context(), c.Param("barcode"), *req.Stock); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete removes the product carrying the barcode.
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteByBarcode(c.Request.Context(), c.Param("barcode")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
