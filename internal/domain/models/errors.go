package models

import "errors"

var (
	// ErrInsufficientStock indicates the requested quantity exceeds what the product can still reserve.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrReservationConflict indicates the optimistic transaction did not commit after its retries.
	ErrReservationConflict = errors.New("reservation conflict, retry")

	// ErrInvalidPayment indicates the amount paid is missing, unparsable or below the subtotal.
	ErrInvalidPayment = errors.New("invalid payment amount")

	// ErrIncompleteBuyerInfo indicates the buyer name or contact is missing.
	ErrIncompleteBuyerInfo = errors.New("incomplete buyer info")

	// ErrPersistence indicates the realtime store rejected a read or write.
	ErrPersistence = errors.New("persistence failure")

	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrProductNotFound = errors.New("product not found")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrSaleNotFound    = errors.New("sale not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrProductExists   = errors.New("product already exists")
	ErrUnauthorized    = errors.New("rule verification failed")

	// ErrCheckoutInProgress indicates another terminal is checking out the shared cart.
	ErrCheckoutInProgress = errors.New("checkout already in progress")

	// ErrDeliveryUnavailable indicates receipts cannot be sent because no messaging client is configured.
	ErrDeliveryUnavailable = errors.New("receipt delivery is not configured")
)
