package domain

import "errors"

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrUnknownTitle      = errors.New("unknown title")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrKeySpaceExhausted = errors.New("activation key space exhausted")
	ErrStorageFault      = errors.New("storage fault")
	ErrCurrencyMismatch  = errors.New("currency mismatch")

	// ErrConcurrentRetirement means another checkout retired the cart first.
	ErrConcurrentRetirement = errors.New("cart already retired")

	ErrCartNotFound = errors.New("active cart not found")
	ErrSaleNotFound = errors.New("sale not found")
)
