package navrunner

import "github.com/Swind/go-nav-runner/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the navrunner package for most use cases.

// Navigator sequences navigations.
type Navigator = core.Navigator

// NavigatorConfig configures a Navigator.
type NavigatorConfig = core.NavigatorConfig

// NavigatorStats is a snapshot of navigator state.
type NavigatorStats = core.NavigatorStats

// NavigationRecord describes a finished navigation.
type NavigationRecord = core.NavigationRecord

// Route is a navigation request.
type Route = core.Route

// RouteConfig is a route registration entry.
type RouteConfig = core.RouteConfig

// Query holds query parameters.
type Query = core.Query

// Options are per-navigation flags.
type Options = core.Options

// Transition describes a page transition.
type Transition = core.Transition

// Action is the per-route controller contract.
type Action = core.Action

// BaseAction is the default Action; embed it to override hooks selectively.
type BaseAction = core.BaseAction

// ActionConfig is passed to an ActionFactory.
type ActionConfig = core.ActionConfig

// ActionFactory constructs Actions.
type ActionFactory = core.ActionFactory

// ActionSpec declares how a route's Action is built.
type ActionSpec = core.ActionSpec

// Router, Viewport and Page are the collaborator contracts.
type (
	Router   = core.Router
	Viewport = core.Viewport
	Page     = core.Page
	Handler  = core.Handler
)

// Event is delivered to subscribers.
type Event = core.Event

// EventType names a lifecycle event.
type EventType = core.EventType

// EventHandler handles events.
type EventHandler = core.EventHandler

// Status is the gate state.
type Status = core.Status

// Event type constants
const (
	EventBeforeLoad       EventType = core.EventBeforeLoad
	EventBeforeTransition EventType = core.EventBeforeTransition
	EventAfterLoad        EventType = core.EventAfterLoad
	EventError            EventType = core.EventError
)

// Status constants
const (
	StatusIdle    Status = core.StatusIdle
	StatusLoading Status = core.StatusLoading
)

// TransitionNone disables the visual transition.
const TransitionNone = core.TransitionNone

// Convenience functions
var (
	NewNavigator           = core.NewNavigator
	DefaultNavigatorConfig = core.DefaultNavigatorConfig
	NewBaseAction          = core.NewBaseAction
	WithFactory            = core.WithFactory
	WithConfig             = core.WithConfig
	IsSuperseded           = core.IsSuperseded
	IsEnterFailure         = core.IsEnterFailure
)

// Errors
var (
	ErrEnterFailed      = core.ErrEnterFailed
	ErrTransitionFailed = core.ErrTransitionFailed
	ErrSuperseded       = core.ErrSuperseded
	ErrDuplicateRoute   = core.ErrDuplicateRoute
	ErrInvalidRoute     = core.ErrInvalidRoute
	ErrNavigatorClosed  = core.ErrNavigatorClosed
)
