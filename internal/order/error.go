package order

import "protexwear-api/internal/apperror"

var (
	ErrOrderNotFound     = apperror.NotFound("Order not found")
	ErrInvalidTransition = apperror.Conflict("Invalid order status transition")
	ErrConcurrentUpdate  = apperror.Conflict("Order was modified concurrently")
	ErrAccessDenied      = apperror.Forbidden("Acceso Denegado")
	ErrEmptyCart         = apperror.Validation("Cart is empty")
	ErrInvalidQuantity   = apperror.Validation("Quantity must be greater than zero")
	ErrInvalidEmail      = apperror.Validation("Invalid customer email")
	ErrUnknownEvent      = apperror.Validation("Unknown order event")
)
