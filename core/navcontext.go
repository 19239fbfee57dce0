package core

import (
	"sync"
	"time"
)

// committed is the {route, page, action} triple of the current navigation.
type committed struct {
	route  *Route
	page   Page
	action Action

	// released is set once the outgoing step (Sleep or Leave) ran on action,
	// so a later navigation does not run it twice.
	released bool
	// slept is set when released through Sleep.
	slept bool
}

func (c *committed) path() string {
	if c.route == nil {
		return ""
	}
	return c.route.Path
}

func (c *committed) refs() Refs {
	return Refs{Action: c.action, Page: c.page}
}

// NavigationContext is the orchestration state shared by the scheduler and
// the transition coordinator. It is created with the Navigator and lives
// as long as it does; only tasks on the Navigator's event loop touch it.
type NavigationContext struct {
	current committed
	cache   *ActionCache
	pending PendingSlot
	status  *StatusRegister

	// seq is the sequence number of the newest navigation that passed the gate.
	seq uint64
}

func newNavigationContext(status *StatusRegister) *NavigationContext {
	return &NavigationContext{
		cache:  NewActionCache(),
		status: status,
	}
}

// latest reports whether seq is the newest navigation that passed the gate.
func (c *NavigationContext) latest(seq uint64) bool {
	return c.seq == seq
}

// owned reports whether action is referenced by the cache or is current.
func (c *NavigationContext) owned(action Action) bool {
	if action == nil {
		return false
	}
	if c.current.action == action {
		return true
	}
	return c.cache.Contains(action)
}

// navigation is one route request travelling through the coordinator.
type navigation struct {
	id        string
	seq       uint64
	route     Route
	startedAt time.Time

	action     Action
	page       Page
	resumed    bool
	transition Transition

	prevRoute *Route
	prev      Refs

	afterOnce sync.Once
}
