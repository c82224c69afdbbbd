package bus

// EventBus is a synchronous in-process pub/sub bus through which game code
// reacts to core messages such as physics ticks and collisions.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in
//   subscription order.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: metrics are collected only while an observer is registered.
//
// Subscribing and publishing are safe for concurrent use, but the frame loop
// is expected to be the only publisher.
type EventBus interface {
	// Publish delivers the event to every active subscriber of event.Type().
	Publish(event Event) error
	// PublishBatch publishes events in order and joins all handler errors.
	// A failing handler does not stop the rest of the batch.
	PublishBatch(events ...Event) error

	// Subscribe registers a handler for an event type. Cancel the returned
	// Subscription to remove it.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)

	AddObserver(obs Observer)
	// GetMetrics returns a snapshot; counters only move while observed.
	GetMetrics() Metrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Frame() uint64
	Data() any
}

// EventHandler is invoked per delivered event.
type EventHandler func(event Event) error

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about deliveries. Observers should return quickly.
type Observer interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, durationMicros int64)
}

// Metrics are updated only while at least one observer is registered.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
