package core

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling panics on the event loop
// =============================================================================

// PanicHandler is called when a loop task, an Action hook or an event
// handler panics. The navigator recovers and keeps the pipeline moving.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context of the panicked task
	// - source: Where the panic occurred (loop name, "action.sleep", "event.afterload", ...)
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, source string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that logs to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, source string, panicInfo any, stackTrace []byte) {
	fmt.Printf("[%s] Panic: %v\nStack trace:\n%s", source, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting navigation metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called from the event loop goroutine and should be
// non-blocking and fast.
type Metrics interface {
	// RecordNavigation records a finished navigation.
	//
	// Parameters:
	// - path: The route path
	// - outcome: How the navigation ended
	// - duration: Time from leaving the pending slot to settling
	RecordNavigation(path string, outcome Outcome, duration time.Duration)

	// RecordStatusRecovery records that the recovery timer reopened the gate.
	RecordStatusRecovery()

	// RecordPendingReplaced records that an unconsumed pending route was overwritten.
	RecordPendingReplaced()

	// RecordActionCache records whether the incoming Action came from the cache.
	RecordActionCache(path string, hit bool)

	// RecordHandlerPanic records that an event handler or Action hook panicked.
	RecordHandlerPanic(source string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordNavigation is a no-op.
func (m *NilMetrics) RecordNavigation(path string, outcome Outcome, duration time.Duration) {}

// RecordStatusRecovery is a no-op.
func (m *NilMetrics) RecordStatusRecovery() {}

// RecordPendingReplaced is a no-op.
func (m *NilMetrics) RecordPendingReplaced() {}

// RecordActionCache is a no-op.
func (m *NilMetrics) RecordActionCache(path string, hit bool) {}

// RecordHandlerPanic is a no-op.
func (m *NilMetrics) RecordHandlerPanic(source string) {}

// =============================================================================
// NavigatorConfig: Configuration for Navigator
// =============================================================================

// DefaultTimeout is how long a navigation may hold the gate while its
// Action is entering before newer navigations are let through.
const DefaultTimeout = 1000 * time.Millisecond

// TransitionProcessor computes extra transition settings for a navigation.
// prev is nil on the first navigation. The returned value is merged over
// the route's own Transition; a nil return leaves it untouched.
type TransitionProcessor func(route *Route, prev *Route) *Transition

// NavigatorConfig holds configuration options for Navigator.
// All handlers are optional; if not provided, default implementations will be used.
type NavigatorConfig struct {
	// Name labels the event loop in logs and panic reports.
	Name string

	// Timeout is the recovery timer duration. Defaults to DefaultTimeout.
	Timeout time.Duration

	// TransitionProcessor post-processes transition settings. Optional.
	TransitionProcessor TransitionProcessor

	// HistoryCapacity bounds the navigation history ring buffer.
	HistoryCapacity int

	// Logger receives lifecycle logs. Defaults to NoOpLogger.
	Logger Logger

	// PanicHandler is called when a hook or handler panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics records navigation metrics. Defaults to NilMetrics.
	Metrics Metrics
}

// DefaultNavigatorConfig returns a config with default handlers.
func DefaultNavigatorConfig() *NavigatorConfig {
	return &NavigatorConfig{
		Name:            "navigator",
		Timeout:         DefaultTimeout,
		HistoryCapacity: defaultHistoryCapacity,
		Logger:          NewNoOpLogger(),
		PanicHandler:    &DefaultPanicHandler{},
		Metrics:         &NilMetrics{},
	}
}

func (c *NavigatorConfig) withDefaults() *NavigatorConfig {
	out := DefaultNavigatorConfig()
	if c == nil {
		return out
	}
	if c.Name != "" {
		out.Name = c.Name
	}
	if c.Timeout > 0 {
		out.Timeout = c.Timeout
	}
	if c.HistoryCapacity > 0 {
		out.HistoryCapacity = c.HistoryCapacity
	}
	out.TransitionProcessor = c.TransitionProcessor
	if c.Logger != nil {
		out.Logger = c.Logger
	}
	if c.PanicHandler != nil {
		out.PanicHandler = c.PanicHandler
	}
	if c.Metrics != nil {
		out.Metrics = c.Metrics
	}
	return out
}
