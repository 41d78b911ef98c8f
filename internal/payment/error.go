package payment

import (
	"errors"
	"fmt"

	"cafe-be/internal/apperr"
)

var (
	ErrPaymentNotFound    = fmt.Errorf("payment %w", apperr.ErrNotFound)
	ErrInvalidMethod      = fmt.Errorf("%w: unknown payment method", apperr.ErrInvalidInput)
	ErrAmountMismatch     = fmt.Errorf("%w: amount does not match order total", apperr.ErrInvalidInput)
	ErrVerificationFailed = fmt.Errorf("%w: payment signature verification failed", apperr.ErrInvalidInput)
	ErrNotYourOrder       = fmt.Errorf("%w: order belongs to another customer", apperr.ErrForbidden)
	ErrNotYourPayment     = fmt.Errorf("%w: payment belongs to another customer", apperr.ErrForbidden)
	ErrAlreadyPaid        = fmt.Errorf("%w: order is already paid", apperr.ErrInvalidState)
	ErrNotYourCafe        = fmt.Errorf("%w: payment belongs to another cafe", apperr.ErrForbidden)

	// ErrStalePayment is returned when a conditional status update finds the
	// payment no longer in the expected status.
	ErrStalePayment = errors.New("payment was modified concurrently")

	ErrTransactionIDExhausted = errors.New("could not allocate a unique transaction id")
)
