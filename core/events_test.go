package core

import (
	"context"
	"testing"
)

type countingMetrics struct {
	NilMetrics
	panics []string
}

func (m *countingMetrics) RecordHandlerPanic(source string) {
	m.panics = append(m.panics, source)
}

// TestEventBus_SubscribePublish tests delivery order and filtering
// Main test items:
// 1. Handlers receive only their event type
// 2. Handlers run in subscription order
// 3. Unsubscribed handlers stop receiving events
func TestEventBus_SubscribePublish(t *testing.T) {
	bus := NewEventBus(nil, nil)
	var got []string

	id1 := bus.Subscribe(EventBeforeLoad, func(e Event) { got = append(got, "first") })
	bus.Subscribe(EventBeforeLoad, func(e Event) { got = append(got, "second") })
	bus.Subscribe(EventAfterLoad, func(e Event) { got = append(got, "after") })

	if id1 == "" {
		t.Fatal("Subscribe returned an empty ID")
	}

	bus.Publish(context.Background(), Event{Type: EventBeforeLoad})
	if !equalStrings(got, []string{"first", "second"}) {
		t.Errorf("delivery = %v", got)
	}

	got = nil
	bus.Unsubscribe(id1)
	bus.Unsubscribe("unknown")
	bus.Publish(context.Background(), Event{Type: EventBeforeLoad})
	if !equalStrings(got, []string{"second"}) {
		t.Errorf("after Unsubscribe delivery = %v", got)
	}
}

// TestEventBus_HandlerPanicIsolated tests panic isolation
// Main test items:
// 1. A panicking handler is reported with the event source
// 2. Later handlers still receive the event
func TestEventBus_HandlerPanicIsolated(t *testing.T) {
	handler := &recordingPanicHandler{}
	metrics := &countingMetrics{}
	bus := NewEventBus(handler, metrics)

	var delivered bool
	bus.Subscribe(EventError, func(e Event) { panic("handler bug") })
	bus.Subscribe(EventError, func(e Event) { delivered = true })

	bus.Publish(context.Background(), Event{Type: EventError})

	if !delivered {
		t.Error("handler after the panicking one did not run")
	}
	if sources := handler.Sources(); len(sources) != 1 || sources[0] != "event.error" {
		t.Errorf("panic sources = %v", sources)
	}
	if len(metrics.panics) != 1 {
		t.Errorf("recorded panics = %v", metrics.panics)
	}
}

// TestEventBus_SubscribeDuringPublish tests re-entrancy
// Main test items:
// 1. A handler may subscribe while being delivered without deadlocking
// 2. The new handler only sees later events
func TestEventBus_SubscribeDuringPublish(t *testing.T) {
	bus := NewEventBus(nil, nil)
	count := 0
	bus.Subscribe(EventAfterLoad, func(e Event) {
		bus.Subscribe(EventAfterLoad, func(e Event) { count++ })
	})

	bus.Publish(context.Background(), Event{Type: EventAfterLoad})
	if count != 0 {
		t.Errorf("new handler saw the in-flight event")
	}
	bus.Publish(context.Background(), Event{Type: EventAfterLoad})
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
