package hub

import (
	"log/slog"
	"sync"
)

// Event types published by the hub.
const (
	EventAction        = "action"
	EventDeviceSeen    = "device_seen"
	EventDeviceRemoved = "device_removed"
	EventFrameDropped  = "frame_dropped"
)

// Event represents a hub event.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// EventHandler is a callback for events.
type EventHandler func(Event)

// subscription is one registered handler. An empty eventType matches all
// events.
type subscription struct {
	id        uint64
	eventType string
	handler   EventHandler
}

// EventBus provides pub/sub for hub events. Handlers run synchronously on
// the emitting goroutine; a panicking handler is recovered so one bad
// consumer cannot take down the frame pipeline.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger *slog.Logger
}

// NewEventBus creates a new event bus.
func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{logger: logger}
}

// On registers a handler for a specific event type.
// Returns an unsubscribe function.
func (eb *EventBus) On(eventType string, handler EventHandler) func() {
	return eb.subscribe(eventType, handler)
}

// OnAll registers a handler that receives all events.
// Returns an unsubscribe function.
func (eb *EventBus) OnAll(handler EventHandler) func() {
	return eb.subscribe("", handler)
}

func (eb *EventBus) subscribe(eventType string, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	id := eb.nextID
	eb.nextID++
	eb.subs = append(eb.subs, subscription{id: id, eventType: eventType, handler: handler})
	return func() { eb.unsubscribe(id) }
}

func (eb *EventBus) unsubscribe(id uint64) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subs {
		if sub.id == id {
			eb.subs = append(eb.subs[:i], eb.subs[i+1:]...)
			return
		}
	}
}

// Emit sends an event to all matching handlers.
func (eb *EventBus) Emit(event Event) {
	eb.mu.RLock()
	matched := make([]EventHandler, 0, len(eb.subs))
	for _, sub := range eb.subs {
		if sub.eventType == "" || sub.eventType == event.Type {
			matched = append(matched, sub.handler)
		}
	}
	eb.mu.RUnlock()

	for _, h := range matched {
		eb.safeCall(h, event)
	}
}

func (eb *EventBus) safeCall(h EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error("event handler panic", "type", event.Type, "panic", r)
		}
	}()
	h(event)
}
