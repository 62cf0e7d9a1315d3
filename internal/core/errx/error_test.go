package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"stock", fmt.Errorf("add: %w", models.ErrInsufficientStock), http.StatusConflict, "insufficient_stock"},
		{"conflict", models.ErrReservationConflict, http.StatusConflict, "reservation_conflict"},
		{"payment", fmt.Errorf("finalize: %w", models.ErrInvalidPayment), http.StatusUnprocessableEntity, "invalid_payment"},
		{"buyer", models.ErrIncompleteBuyerInfo, http.StatusUnprocessableEntity, "incomplete_buyer_info"},
		{"empty cart", models.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
		{"checkout", fmt.Errorf("claim checkout: %w", models.ErrCheckoutInProgress), http.StatusConflict, "checkout_in_progress"},
		{"duplicate product", fmt.Errorf("barcode 899: %w", models.ErrProductExists), http.StatusConflict, "product_exists"},
		{"not found", models.ErrSaleNotFound, http.StatusNotFound, "sale_not_found"},
		{"gate", models.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"persistence", fmt.Errorf("%w: op get: dial tcp", models.ErrPersistence), http.StatusBadGateway, "persistence_failure"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomain(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.code, appErr.Code)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestFromDomain_KeepsAppError(t *testing.T) {
	original := New(errors.New("bad body"), http.StatusBadRequest, "bad_request", "invalid request body")
	wrapped := fmt.Errorf("handler: %w", original)

	assert.Same(t, original, FromDomain(wrapped))
	assert.Nil(t, FromDomain(nil))
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "oops", New(nil, 500, "internal", "oops").Error())
	assert.Equal(t, "oops: cause", New(errors.New("cause"), 500, "internal", "oops").Error())
}
