package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// RouterStarter is implemented by routers that need an explicit start,
// typically to dispatch the initial URL.
type RouterStarter interface {
	Start(index string) error
}

// Navigator turns router matches into sequenced page transitions.
//
// It owns an EventLoop on which all navigation state lives. Only one
// navigation passes the gate at a time; a request arriving meanwhile waits
// in a single pending slot, where a newer request replaces an older one.
type Navigator struct {
	cfg          *NavigatorConfig
	loop         *EventLoop
	bus          *EventBus
	router       Router
	viewport     Viewport
	nav          *NavigationContext
	history      *navigationHistory
	logger       Logger
	metrics      Metrics
	panicHandler PanicHandler

	routesMu sync.Mutex
	routes   map[string]RouteConfig

	snapMu   sync.Mutex
	snapshot NavigatorStats

	inflight   atomic.Int32
	started    atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
	superseded atomic.Int64
	recoveries atomic.Int64
	replaced   atomic.Int64
}

// NewNavigator creates a Navigator bound to router and viewport.
// A nil cfg uses DefaultNavigatorConfig.
func NewNavigator(router Router, viewport Viewport, cfg *NavigatorConfig) *Navigator {
	cfg = cfg.withDefaults()

	n := &Navigator{
		cfg:          cfg,
		router:       router,
		viewport:     viewport,
		history:      newNavigationHistory(cfg.HistoryCapacity),
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		panicHandler: cfg.PanicHandler,
		routes:       make(map[string]RouteConfig),
	}
	n.loop = NewEventLoop(cfg.Name, cfg.PanicHandler)
	n.bus = NewEventBus(cfg.PanicHandler, cfg.Metrics)
	n.nav = newNavigationContext(NewStatusRegister(n.loop, cfg.Timeout, n.recovered))
	n.snapshot.Name = cfg.Name
	return n
}

// Name returns the navigator name.
func (n *Navigator) Name() string {
	return n.cfg.Name
}

// Load registers routes with the router. Each match is turned into a Route
// and requested with RequestLoad. Registering a path twice fails.
func (n *Navigator) Load(routes ...RouteConfig) error {
	n.routesMu.Lock()
	defer n.routesMu.Unlock()

	for _, rc := range routes {
		if err := rc.validate(); err != nil {
			return err
		}
		if _, dup := n.routes[rc.Path]; dup {
			return newNavigationError("register", rc.Path, ErrDuplicateRoute, nil)
		}

		rc.Action = rc.Action.Resolve()
		if err := n.router.Add(rc.Path, n.handlerFor(rc)); err != nil {
			return &NavigationError{Op: "register", Path: rc.Path, Err: err}
		}
		n.routes[rc.Path] = rc
		n.logger.Debug("Route registered", F("path", rc.Path), F("cached", rc.Cached))
	}
	return nil
}

func (n *Navigator) handlerFor(rc RouteConfig) Handler {
	return func(path string, query Query, opts Options) {
		if err := n.RequestLoad(rc.routeTo(path, query, opts)); err != nil {
			n.logger.Warn("Route dropped", F("path", path), F("error", err))
		}
	}
}

// Start starts the router when it supports it.
func (n *Navigator) Start(index string) error {
	if n.loop.IsClosed() {
		return ErrNavigatorClosed
	}
	if s, ok := n.router.(RouterStarter); ok {
		if err := s.Start(index); err != nil {
			return fmt.Errorf("start router: %w", err)
		}
	}
	return nil
}

// RequestLoad asks for route to be loaded. It returns immediately; the
// route is served once the gate is open, unless a newer request replaces it
// first.
func (n *Navigator) RequestLoad(route Route) error {
	if n.loop.IsClosed() {
		return ErrNavigatorClosed
	}
	route = route.Clone()
	route.Action = route.Action.Resolve()
	n.loop.PostTask(func(ctx context.Context) {
		n.requestLoad(ctx, route)
	})
	return nil
}

// Subscribe registers handler for events of eventType.
func (n *Navigator) Subscribe(eventType EventType, handler EventHandler) string {
	return n.bus.Subscribe(eventType, handler)
}

// Unsubscribe removes a subscription.
func (n *Navigator) Unsubscribe(subscriptionID string) {
	n.bus.Unsubscribe(subscriptionID)
}

// SetTimeout changes the recovery timeout for subsequent navigations.
func (n *Navigator) SetTimeout(timeout time.Duration) {
	n.nav.status.SetTimeout(timeout)
}

// Timeout returns the recovery timeout.
func (n *Navigator) Timeout() time.Duration {
	return n.nav.status.Timeout()
}

// Closed reports whether Shutdown has run.
func (n *Navigator) Closed() bool {
	return n.loop.IsClosed()
}

// Status returns the gate state.
func (n *Navigator) Status() Status {
	return n.nav.status.Status()
}

// Stats returns a snapshot of the navigator state.
func (n *Navigator) Stats() NavigatorStats {
	n.snapMu.Lock()
	s := n.snapshot
	n.snapMu.Unlock()

	s.Status = n.nav.status.Status()
	s.Started = n.started.Load()
	s.Completed = n.completed.Load()
	s.Failed = n.failed.Load()
	s.Superseded = n.superseded.Load()
	s.Recoveries = n.recoveries.Load()
	s.Replaced = n.replaced.Load()
	s.Closed = n.Closed()
	return s
}

// RecentNavigations returns up to limit finished navigations, newest first.
func (n *Navigator) RecentNavigations(limit int) []NavigationRecord {
	return n.history.Recent(limit)
}

// LastNavigation returns the most recent finished navigation.
func (n *Navigator) LastNavigation() (NavigationRecord, bool) {
	return n.history.Last()
}

// WaitIdle blocks until no navigation is in flight or pending and the gate
// is open. A navigation whose Action never finishes entering keeps
// WaitIdle blocked until ctx is done.
func (n *Navigator) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		settled := make(chan bool, 1)
		n.loop.PostTask(func(context.Context) {
			settled <- n.settled()
		})

		select {
		case ok := <-settled:
			if ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-n.loop.stopped:
			return ErrNavigatorClosed
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (n *Navigator) settled() bool {
	return n.nav.pending.Empty() &&
		n.inflight.Load() == 0 &&
		n.nav.status.Status() == StatusIdle
}

// Shutdown stops the event loop. In-flight Enter and Page.Enter calls see
// their context cancelled; their replies are dropped.
func (n *Navigator) Shutdown() {
	n.loop.Stop()
	n.logger.Info("Navigator stopped", F("name", n.cfg.Name))
}

// updateSnapshot refreshes the cross-goroutine view of loop-owned state.
func (n *Navigator) updateSnapshot() {
	pendingPath := ""
	if r, ok := n.nav.pending.Peek(); ok {
		pendingPath = r.Path
	}
	last, hasLast := n.history.Last()

	n.snapMu.Lock()
	defer n.snapMu.Unlock()
	n.snapshot.Pending = !n.nav.pending.Empty()
	n.snapshot.PendingPath = pendingPath
	n.snapshot.CurrentPath = n.nav.current.path()
	n.snapshot.CachedActions = n.nav.cache.Len()
	if hasLast {
		n.snapshot.LastPath = last.Path
		n.snapshot.LastAt = last.FinishedAt
	}
}
