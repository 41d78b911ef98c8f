package user

import (
	"errors"
	"fmt"

	"cafe-be/internal/apperr"
)

var (
	ErrUserNotFound    = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInactiveUser    = fmt.Errorf("%w: account is disabled", apperr.ErrForbidden)

	ErrNoSecret     = errors.New("JWT_SECRET is not set")
	ErrInvalidToken = errors.New("invalid token")
)
