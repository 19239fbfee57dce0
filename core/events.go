package core

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// EventType names a navigation lifecycle event.
type EventType string

const (
	// EventBeforeLoad fires synchronously before any asynchronous Action work.
	EventBeforeLoad EventType = "beforeload"
	// EventBeforeTransition fires after a successful enter or wakeup, right
	// before the visual transition starts.
	EventBeforeTransition EventType = "beforetransition"
	// EventAfterLoad fires when the viewport reports the transition done.
	EventAfterLoad EventType = "afterload"
	// EventError fires when a navigation fails.
	EventError EventType = "error"
)

// Refs identifies an Action and the page it drives.
type Refs struct {
	Action Action
	Page   Page
}

// Event is delivered to subscribers. Current describes the navigation being
// loaded and Previous the one that was current when it started.
type Event struct {
	Type         EventType
	NavigationID string
	Route        *Route
	Current      Refs
	Previous     Refs
	Err          error
}

// EventHandler handles an event. Handlers run on the event loop goroutine
// and must not block.
type EventHandler func(event Event)

type subscription struct {
	id      string
	typ     EventType
	handler EventHandler
}

// EventBus delivers navigation events to subscribers synchronously, in
// subscription order. Subscribe and Unsubscribe may be called from any
// goroutine; Publish is called from the event loop.
type EventBus struct {
	mu            sync.RWMutex
	subscriptions map[EventType][]subscription

	panicHandler PanicHandler
	metrics      Metrics
}

// NewEventBus creates an event bus. Handler panics are reported to panicHandler.
func NewEventBus(panicHandler PanicHandler, metrics Metrics) *EventBus {
	if panicHandler == nil {
		panicHandler = &DefaultPanicHandler{}
	}
	if metrics == nil {
		metrics = &NilMetrics{}
	}
	return &EventBus{
		subscriptions: make(map[EventType][]subscription),
		panicHandler:  panicHandler,
		metrics:       metrics,
	}
}

// Subscribe registers handler for events of eventType and returns the
// subscription ID.
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) string {
	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{
		id:      id,
		typ:     eventType,
		handler: handler,
	})
	return id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (b *EventBus) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for typ, subs := range b.subscriptions {
		newSubs := make([]subscription, 0, len(subs))
		for _, sub := range subs {
			if sub.id != subscriptionID {
				newSubs = append(newSubs, sub)
			}
		}
		if len(newSubs) == 0 {
			delete(b.subscriptions, typ)
		} else {
			b.subscriptions[typ] = newSubs
		}
	}
}

// Publish calls every handler subscribed to event.Type. A panicking handler
// is reported and does not stop delivery to the others.
func (b *EventBus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subscriptions[event.Type]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(ctx, sub, event)
	}
}

func (b *EventBus) deliver(ctx context.Context, sub subscription, event Event) {
	defer func() {
		if rec := recover(); rec != nil {
			source := "event." + string(event.Type)
			b.metrics.RecordHandlerPanic(source)
			b.panicHandler.HandlePanic(ctx, source, rec, debug.Stack())
		}
	}()
	sub.handler(event)
}
