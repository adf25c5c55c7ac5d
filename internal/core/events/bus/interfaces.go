package bus

import "time"

// EventBus is an in-process pub/sub bus.
//
//   - Type-based fan-out: handlers subscribe by Event.Type.
//   - Synchronous delivery: Publish calls handlers in the caller goroutine, in
//     subscription order.
//   - Error aggregation: handler errors are joined and returned from Publish.
//
// All methods are safe for concurrent use. Handlers may subscribe or cancel
// from inside a delivery: a cancelled handler that has not run yet is skipped,
// a new subscription is first reached by the next Publish.
type EventBus interface {
	Publish(event Event) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	Unsubscribe(Subscription) error
	PublishBatch(events ...Event) error
	Subscribers(eventType string) int
	Metrics() Metrics
}

// Event is an immutable message. Type is the routing key.
type Event struct {
	Type      string
	Source    string
	Timestamp time.Time
	Data      any
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, source string, data any) Event {
	return Event{Type: eventType, Source: source, Timestamp: time.Now(), Data: data}
}

type EventHandler func(event Event) error

// Subscription is a handler registered for one event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Metrics are cumulative counters since the bus was created.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
