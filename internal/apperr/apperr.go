// Package apperr defines the error kinds shared by the order, booking and
// payment services. Domain packages wrap these sentinels so callers can
// branch on the kind with errors.Is regardless of the concrete message.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidState       = errors.New("invalid state")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("precondition failed")
)

var kinds = []error{
	ErrNotFound,
	ErrInvalidInput,
	ErrInvalidState,
	ErrForbidden,
	ErrConflict,
	ErrPreconditionFailed,
}

// Kind returns the sentinel kind err wraps, or nil for unclassified errors.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// StateError reports a transition attempted from a status that does not allow it.
type StateError struct {
	Entity   string
	ID       int64
	Action   string
	Expected []string
	Actual   string
}

func (e *StateError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("cannot %s %s %d in status %s", e.Action, e.Entity, e.ID, e.Actual)
	}
	return fmt.Sprintf(
		"cannot %s %s %d: status is %s, expected %s",
		e.Action, e.Entity, e.ID, e.Actual, strings.Join(e.Expected, " or "),
	)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
