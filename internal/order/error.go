package order

import (
	"errors"
	"fmt"

	"cafe-be/internal/apperr"
)

var (
	ErrOrderNotFound   = fmt.Errorf("order %w", apperr.ErrNotFound)
	ErrEmptyOrder      = fmt.Errorf("%w: order must contain at least one item", apperr.ErrInvalidInput)
	ErrInvalidQty      = fmt.Errorf("%w: quantity must be at least 1", apperr.ErrInvalidInput)
	ErrInvalidType     = fmt.Errorf("%w: unknown order type", apperr.ErrInvalidInput)
	ErrInvalidStatus   = fmt.Errorf("%w: unknown order status", apperr.ErrInvalidInput)
	ErrNotYourOrder    = fmt.Errorf("%w: order belongs to another customer", apperr.ErrForbidden)
	ErrNotYourCafe     = fmt.Errorf("%w: order belongs to another cafe", apperr.ErrForbidden)
	ErrWrongChef       = fmt.Errorf("%w: only the chef preparing this order can mark it ready", apperr.ErrForbidden)
	ErrItemUnavailable = fmt.Errorf("%w: menu item is not available", apperr.ErrInvalidState)
	ErrOrderHasPayment = fmt.Errorf("%w: order has a payment on record", apperr.ErrInvalidState)

	// ErrStaleOrder is returned by the repository when the row changed
	// since it was read. The service turns it into a state error.
	ErrStaleOrder = errors.New("order was modified concurrently")

	// ErrOrderNumberExhausted means every generated number collided.
	ErrOrderNumberExhausted = errors.New("could not allocate a unique order number")
)
