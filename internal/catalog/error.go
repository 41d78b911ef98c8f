package catalog

import (
	"fmt"

	"cafe-be/internal/apperr"
)

var (
	ErrCafeNotFound     = fmt.Errorf("cafe %w", apperr.ErrNotFound)
	ErrMenuItemNotFound = fmt.Errorf("menu item %w", apperr.ErrNotFound)
	ErrTableNotFound    = fmt.Errorf("table %w", apperr.ErrNotFound)
)
