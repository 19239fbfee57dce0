package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for navigation outcomes and registration failures.
var (
	// ErrEnterFailed indicates the incoming Action's Enter returned an error.
	// The navigation was rolled back.
	ErrEnterFailed = errors.New("action enter failed")

	// ErrTransitionFailed indicates the viewport could not run the page transition.
	ErrTransitionFailed = errors.New("page transition failed")

	// ErrSuperseded indicates a navigation reached its commit point after a
	// newer navigation had already started, and was discarded.
	// This is a normal flow control outcome, not a failure.
	ErrSuperseded = errors.New("navigation superseded by a newer one")

	// ErrDuplicateRoute indicates a path was registered twice.
	ErrDuplicateRoute = errors.New("route already registered")

	// ErrInvalidRoute indicates a route configuration is unusable.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrNavigatorClosed indicates the navigator has been shut down.
	ErrNavigatorClosed = errors.New("navigator is closed")
)

// NavigationError describes a failed navigation or registration step.
type NavigationError struct {
	Op   string // Operation that failed (e.g., "enter", "transition", "register")
	Path string // Route path involved
	Err  error  // Underlying error
}

func (e *NavigationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("navigation %s %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("navigation %s %q", e.Op, e.Path)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

func newNavigationError(op, path string, sentinel, cause error) *NavigationError {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &NavigationError{Op: op, Path: path, Err: err}
}

// IsSuperseded checks if an error reports a discarded stale navigation.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}

// IsEnterFailure checks if an error reports an Action enter failure.
func IsEnterFailure(err error) bool {
	return errors.Is(err, ErrEnterFailed)
}
