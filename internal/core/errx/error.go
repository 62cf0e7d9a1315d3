package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

// SystemErrorMessage is a user-facing fallback when internal errors occur.
const SystemErrorMessage = "internal server error"

// AppError wraps an underlying error with an HTTP status, a stable code and a safe message.
type AppError struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, code, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Code:    code,
		Message: message,
	}
}

type mapping struct {
	target error
	status int
	code   string
}

var domainMappings = []mapping{
	{models.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{models.ErrReservationConflict, http.StatusConflict, "reservation_conflict"},
	{models.ErrCheckoutInProgress, http.StatusConflict, "checkout_in_progress"},
	{models.ErrInvalidQuantity, http.StatusUnprocessableEntity, "invalid_quantity"},
	{models.ErrInvalidPayment, http.StatusUnprocessableEntity, "invalid_payment"},
	{models.ErrIncompleteBuyerInfo, http.StatusUnprocessableEntity, "incomplete_buyer_info"},
	{models.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
	{models.ErrInvalidProduct, http.StatusUnprocessableEntity, "invalid_product"},
	{models.ErrProductExists, http.StatusConflict, "product_exists"},
	{models.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{models.ErrLineNotFound, http.StatusNotFound, "line_not_found"},
	{models.ErrSaleNotFound, http.StatusNotFound, "sale_not_found"},
	{models.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{models.ErrPersistence, http.StatusBadGateway, "persistence_failure"},
	{models.ErrDeliveryUnavailable, http.StatusServiceUnavailable, "delivery_unavailable"},
}

// FromDomain maps a service error to an AppError. Unknown errors become a 500
// with the generic message so internals never leak to clients.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, m := range domainMappings {
		if errors.Is(err, m.target) {
			return New(err, m.status, m.code, m.target.Error())
		}
	}
	return New(err, http.StatusInternalServerError, "internal", SystemErrorMessage)
}
