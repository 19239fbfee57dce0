package core

import (
	"context"
	"sync"
)

// Action is the behavior contract for a per-route controller.
//
// Typical usage is to implement an Action by embedding *BaseAction and
// overriding the hooks the page needs. Enter runs off the event loop and may
// block; every other hook runs on the event loop and should return quickly.
type Action interface {
	// Enter prepares the Action for path. main is the page root element
	// supplied by the viewport. A non-nil error rolls the navigation back.
	Enter(ctx context.Context, path string, query Query, main any, opts Options) error

	// Ready is called once the page transition after a successful Enter has settled.
	Ready()

	// Complete is called when the navigation finished successfully.
	Complete()

	// Sleep suspends the Action; it stays in the cache with its state intact.
	Sleep()

	// Wakeup re-activates a cached Action with a new query.
	Wakeup(path string, query Query, opts Options)

	// Leave is called when the Action stops being current and is not cached.
	Leave()

	// Dispose releases everything the Action holds. It is irreversible.
	Dispose()
}

// ActionConfig is the plain configuration handed to an ActionFactory.
type ActionConfig map[string]any

// ActionFactory constructs a fresh Action for a navigation.
type ActionFactory func(cfg ActionConfig) Action

// ActionSpec declares how a route's Action is built: either through an
// explicit Factory, or from Config alone with the default BaseAction.
type ActionSpec struct {
	Factory ActionFactory
	Config  ActionConfig
}

// WithFactory declares an Action built by factory with cfg.
func WithFactory(factory ActionFactory, cfg ActionConfig) ActionSpec {
	return ActionSpec{Factory: factory, Config: cfg}
}

// WithConfig declares a default BaseAction configured by cfg.
func WithConfig(cfg ActionConfig) ActionSpec {
	return ActionSpec{Config: cfg}
}

// Resolve returns the spec with its Factory filled in.
func (s ActionSpec) Resolve() ActionSpec {
	if s.Factory == nil {
		s.Factory = func(cfg ActionConfig) Action { return NewBaseAction(cfg) }
	}
	return s
}

// New constructs an Action from the spec.
func (s ActionSpec) New() Action {
	return s.Resolve().Factory(s.Config)
}

// =============================================================================
// ActionState
// =============================================================================

// ActionState is the lifecycle position of an Action.
type ActionState int

const (
	ActionConstructed ActionState = iota
	ActionEntering
	ActionActive
	ActionSleeping
	ActionLeaving
	ActionDisposed
)

func (s ActionState) String() string {
	switch s {
	case ActionConstructed:
		return "constructed"
	case ActionEntering:
		return "entering"
	case ActionActive:
		return "active"
	case ActionSleeping:
		return "sleeping"
	case ActionLeaving:
		return "leaving"
	case ActionDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// =============================================================================
// BaseAction
// =============================================================================

// BaseAction provides the default Action behavior: every hook is a no-op
// apart from tracking the lifecycle state, and Dispose runs the cleanups
// registered with OnDispose.
type BaseAction struct {
	mu       sync.Mutex
	config   ActionConfig
	state    ActionState
	path     string
	query    Query
	cleanups []func()
}

var _ Action = (*BaseAction)(nil)

// NewBaseAction creates a BaseAction with cfg.
func NewBaseAction(cfg ActionConfig) *BaseAction {
	return &BaseAction{config: cfg}
}

// Config returns the configuration the Action was built with.
func (a *BaseAction) Config() ActionConfig {
	return a.config
}

// State returns the current lifecycle state.
func (a *BaseAction) State() ActionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Path returns the path of the last Enter or Wakeup.
func (a *BaseAction) Path() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.path
}

// Query returns the query of the last Enter or Wakeup.
func (a *BaseAction) Query() Query {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.query
}

// OnDispose registers fn to run when the Action is disposed.
func (a *BaseAction) OnDispose(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleanups = append(a.cleanups, fn)
}

func (a *BaseAction) setState(s ActionState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Enter records path and query and resolves immediately.
func (a *BaseAction) Enter(ctx context.Context, path string, query Query, main any, opts Options) error {
	a.mu.Lock()
	a.state = ActionEntering
	a.path = path
	a.query = query
	a.mu.Unlock()
	return nil
}

// Ready marks the Action active.
func (a *BaseAction) Ready() {
	a.setState(ActionActive)
}

// Complete marks the Action active.
func (a *BaseAction) Complete() {
	a.setState(ActionActive)
}

// Sleep marks the Action sleeping.
func (a *BaseAction) Sleep() {
	a.setState(ActionSleeping)
}

// Wakeup records the new query and marks the Action active.
func (a *BaseAction) Wakeup(path string, query Query, opts Options) {
	a.mu.Lock()
	a.state = ActionActive
	a.path = path
	a.query = query
	a.mu.Unlock()
}

// Leave marks the Action leaving.
func (a *BaseAction) Leave() {
	a.setState(ActionLeaving)
}

// Dispose runs registered cleanups once, in reverse registration order.
func (a *BaseAction) Dispose() {
	a.mu.Lock()
	if a.state == ActionDisposed {
		a.mu.Unlock()
		return
	}
	a.state = ActionDisposed
	cleanups := a.cleanups
	a.cleanups = nil
	a.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
