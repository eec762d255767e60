package service

import (
	"errors"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/repository"
)

var (
	ErrCartEmpty         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidPagination = errors.New("invalid pagination parameters")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("request is already being processed")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is not available")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrForbidden         = errors.New("access denied")
	ErrOrderStatus       = errors.New("order status does not allow this operation")
	ErrInvalidTransition = errors.New("illegal transition of order status")
	ErrInternal          = errors.New("internal server error")
)

const (
	CodeCartEmpty         = "CART_EMPTY"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInvalidPagination = "INVALID_PAGINATION"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeConflict          = "CONFLICT"
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
	CodeProductInactive   = "PRODUCT_INACTIVE"
	CodeInvalidProduct    = "INVALID_PRODUCT"
	CodeNotFound          = "NOT_FOUND"
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeOrderStatusError  = "ORDER_STATUS_ERROR"
	CodeInvalidTransition = "ORDER_INVALID_TRANSITION"
	CodeInternalError     = "INTERNAL_SERVER_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrCartEmpty, CodeCartEmpty},
	{ErrInvalidQuantity, CodeInvalidQuantity},
	{ErrInvalidPagination, CodeInvalidPagination},
	{ErrInsufficientStock, CodeInsufficientStock},
	{ErrConflict, CodeConflict},
	{ErrProductNotFound, CodeProductNotFound},
	{ErrProductInactive, CodeProductInactive},
	{ErrInvalidProduct, CodeInvalidProduct},
	{ErrCartItemNotFound, CodeNotFound},
	{ErrOrderNotFound, CodeOrderNotFound},
	{ErrForbidden, CodeForbidden},
	{ErrOrderStatus, CodeOrderStatusError},
	{ErrInvalidTransition, CodeInvalidTransition},
}

// CodeOf maps an error returned by this package to its stable code.
// Anything unrecognised is an internal error.
func CodeOf(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternalError
}

// mapStoreError converts repository not-found sentinels into service errors.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return ErrOrderNotFound
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrCartLineNotFound):
		return ErrCartItemNotFound
	case errors.Is(err, repository.ErrInvalidQuantity):
		return ErrInvalidQuantity
	default:
		return err
	}
}
