package models

import "errors"

// Expected business outcomes. Anything else propagating out of a store call
// is an infrastructure fault and stays a wrapped driver error.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
)
