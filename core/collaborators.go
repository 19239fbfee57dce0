package core

import "context"

// =============================================================================
// Router: URL matching collaborator
// =============================================================================

// Handler is invoked by the Router when a registered path matches.
// It may be called from any goroutine.
type Handler func(path string, query Query, opts Options)

// Router is the URL router the Navigator registers its routes with.
type Router interface {
	// Add registers handler for path. Registering a path twice is an error.
	Add(path string, handler Handler) error

	// Reset rewrites the current URL to path without dispatching a match.
	Reset(path string)
}

// =============================================================================
// Viewport: page insertion and transition collaborator
// =============================================================================

// SignalAfterEnter is emitted by a Page once its enter transition has
// visually completed.
const SignalAfterEnter = "afterenter"

// LoadOptions are passed to Viewport.Load.
type LoadOptions struct {
	Cached bool
}

// Viewport produces page handles for paths.
type Viewport interface {
	Load(path string, opts LoadOptions) Page
}

// Page is a viewport-owned page handle. Enter is called off the event loop
// while the other methods are called on it, so implementations must be
// safe for concurrent use.
type Page interface {
	// Enter inserts the page running the transition and blocks until the
	// transition settles.
	Enter(ctx context.Context, transitionType string, transition Transition) error

	// Remove detaches the page; force discards it without a leave transition.
	Remove(force bool)

	// On registers listener for signal.
	On(signal string, listener func())

	// Main returns the page root element handed to Action.Enter.
	Main() any
}
