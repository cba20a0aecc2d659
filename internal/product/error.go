package product

import "protexwear-api/internal/apperror"

var (
	ErrProductNotFound   = apperror.NotFound("Product not found")
	ErrInsufficientStock = apperror.Conflict("Insufficient stock")
)
