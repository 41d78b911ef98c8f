package booking

import (
	"errors"
	"fmt"

	"cafe-be/internal/apperr"
)

var (
	ErrBookingNotFound   = fmt.Errorf("booking %w", apperr.ErrNotFound)
	ErrSlotTaken         = fmt.Errorf("%w: table is already booked for this time", apperr.ErrConflict)
	ErrEmailNotVerified  = fmt.Errorf("%w: please verify your email before making a booking", apperr.ErrPreconditionFailed)
	ErrProfileIncomplete = fmt.Errorf("%w: please complete your profile before making a booking", apperr.ErrPreconditionFailed)
	ErrTableUnavailable  = fmt.Errorf("%w: table is not available for booking", apperr.ErrInvalidState)
	ErrInvalidPartySize  = fmt.Errorf("%w: party size must be at least 1", apperr.ErrInvalidInput)
	ErrOverCapacity      = fmt.Errorf("%w: party size exceeds table capacity", apperr.ErrInvalidInput)
	ErrNotYourBooking    = fmt.Errorf("%w: booking belongs to another customer", apperr.ErrForbidden)
	ErrNotYourCafe       = fmt.Errorf("%w: booking belongs to another cafe", apperr.ErrForbidden)

	// ErrStaleBooking is returned when the stored status moved on between
	// read and conditional update.
	ErrStaleBooking = errors.New("booking was modified concurrently")
)
