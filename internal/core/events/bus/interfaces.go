package bus

import "time"

// EventBus defines an in-process pub/sub event bus shared by the engine and every
// component attached to a scene.
//
// Key characteristics:
//   - Type-based fan-out: handlers subscribe by Event.Type() string.
//   - Optional topics: handlers can subscribe within a topic for isolation and scoping.
//   - Synchronous, ordered delivery: Publish calls handlers in the caller goroutine, in
//     subscription order.
//   - Error aggregation: multiple handler errors are joined and returned from Publish.
//   - Panic isolation: a panicking handler is reported as an ErrHandlerPanic error and
//     the remaining subscribers still run.
//   - Optional observability: observers receive per-delivery callbacks; counters are
//     always kept.
//
// Notes:
//   - The bus never revokes a subscription on its own. Components cancel what they
//     subscribed before (or during) their Shutdown callback.
//   - Topics are logical groupings; the default topic is "" (empty string).
//   - All methods are safe for concurrent use.
type EventBus interface {
	// Publish delivers the event synchronously to all active subscribers of event.Type()
	// in the default topic. If one or more handlers return an error, a joined error is
	// returned.
	Publish(event Event) error
	// Subscribe registers a handler for a specific event type in the default topic and
	// returns a Subscription handle that can be used to cancel later.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil; does nothing.
	Unsubscribe(Subscription) error

	// PublishWithFilters applies filters before delivery; if any filter returns false,
	// the event is dropped and not delivered to handlers.
	PublishWithFilters(event Event, filters ...EventFilter) error

	// SubscribeTopic registers a handler for eventType within a topic.
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	// PublishToTopic publishes to a specific topic.
	PublishToTopic(topic string, event Event) error

	// AddObserver registers an observer to receive delivery callbacks.
	AddObserver(obs EventBusObserver)
	// RemoveObserver unregisters a previously added observer.
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of accumulated metrics.
	GetMetrics() EventBusMetrics
	// SubscriberCount reports live subscriptions across all topics and types.
	SubscriberCount() int
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Metadata() map[string]any
}

type (
	// EventHandler is a callback invoked per delivered event. If it returns an
	// error, Publish aggregates and returns it.
	EventHandler func(event Event) error
	// EventFilter decides whether an event should be delivered. If any filter
	// returns false, the event is dropped silently.
	EventFilter func(event Event) bool
)

// Subscription represents a registered handler bound to an event type.
// Use Cancel or EventBus.Unsubscribe to stop receiving events.
type Subscription interface {
	// ID is a unique identifier for this subscription.
	ID() string
	// Topic returns the topic the subscription lives in.
	Topic() string
	// EventType returns the event type this subscription listens to.
	EventType() string
	// IsActive reports whether this subscription is still registered.
	IsActive() bool
	// Cancel de-registers the handler from the bus. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries. Observers should return quickly.
type EventBusObserver interface {
	OnPublish(topic string, event Event)
	OnDelivered(topic string, event Event, handlers int, err error, took time.Duration)
}

// EventBusMetrics counts deliveries since the bus was created.
type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
}
