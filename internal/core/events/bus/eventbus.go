package bus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// simpleEvent is a basic implementation of Event.
type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
	meta    map[string]any
}

func (e simpleEvent) Type() string             { return e.typeStr }
func (e simpleEvent) Source() string           { return e.source }
func (e simpleEvent) Timestamp() time.Time     { return e.ts }
func (e simpleEvent) Data() any                { return e.data }
func (e simpleEvent) Metadata() map[string]any { return e.meta }

// NewEvent creates a simple Event implementation.
func NewEvent(typ, src string, data any, metadata map[string]any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data, meta: metadata}
}

type subscription struct {
	id        string
	topic     string
	eventType string
	handler   EventHandler
	bus       *inMemoryBus

	mu     sync.Mutex
	active bool
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) Topic() string     { return s.topic }
func (s *subscription) EventType() string { return s.eventType }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	s.mu.Unlock()
	if wasActive {
		s.bus.remove(s)
	}
	return nil
}

type routeKey struct {
	topic     string
	eventType string
}

// inMemoryBus keeps subscribers per (topic, type) in subscription order.
type inMemoryBus struct {
	mu        sync.RWMutex
	routes    map[routeKey][]*subscription
	metrics   EventBusMetrics
	observers []EventBusObserver
}

var _ EventBus = (*inMemoryBus)(nil)

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{
		routes: make(map[routeKey][]*subscription),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	return b.deliver("", event)
}

func (b *inMemoryBus) PublishToTopic(topic string, event Event) error {
	return b.deliver(topic, event)
}

func (b *inMemoryBus) PublishWithFilters(event Event, filters ...EventFilter) error {
	for _, f := range filters {
		if !f(event) {
			b.mu.Lock()
			b.metrics.DroppedByFilters++
			b.mu.Unlock()
			return nil
		}
	}
	return b.Publish(event)
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	return b.SubscribeTopic("", eventType, handler)
}

func (b *inMemoryBus) SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error) {
	if eventType == "" {
		return nil, ErrEmptyEventType
	}
	if handler == nil {
		return nil, ErrNilHandler
	}
	s := &subscription{
		id:        uuid.NewString(),
		topic:     topic,
		eventType: eventType,
		handler:   handler,
		bus:       b,
		active:    true,
	}
	key := routeKey{topic: topic, eventType: eventType}
	b.mu.Lock()
	b.routes[key] = append(b.routes[key], s)
	b.mu.Unlock()
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) AddObserver(obs EventBusObserver) {
	b.mu.Lock()
	b.observers = append(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs EventBusObserver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, o := range b.observers {
		if o == obs {
			b.observers = append(b.observers[:i:i], b.observers[i+1:]...)
			return
		}
	}
}

func (b *inMemoryBus) GetMetrics() EventBusMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

func (b *inMemoryBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.routes {
		n += len(subs)
	}
	return n
}

func (b *inMemoryBus) remove(s *subscription) {
	key := routeKey{topic: s.topic, eventType: s.eventType}
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.routes[key]
	for i, cur := range subs {
		if cur == s {
			// copy so an in-flight delivery keeps iterating its own snapshot
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.routes, key)
			} else {
				b.routes[key] = next
			}
			return
		}
	}
}

func (b *inMemoryBus) deliver(topic string, event Event) error {
	if event == nil {
		return ErrNilEvent
	}
	start := time.Now()
	b.mu.RLock()
	subs := b.routes[routeKey{topic: topic, eventType: event.Type()}]
	observers := b.observers
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(topic, event)
	}

	var all error
	delivered := 0
	for _, s := range subs {
		// a handler may cancel a later subscriber during this delivery
		if !s.IsActive() {
			continue
		}
		delivered++
		if err := call(s.handler, event); err != nil {
			all = errors.Join(all, err)
		}
	}

	b.mu.Lock()
	b.metrics.Published++
	b.metrics.DeliveredHandlers += uint64(delivered)
	if all != nil {
		b.metrics.Errors++
	}
	b.mu.Unlock()

	if len(observers) > 0 {
		took := time.Since(start)
		for _, obs := range observers {
			obs.OnDelivered(topic, event, delivered, all, took)
		}
	}
	return all
}

// call runs one handler, turning a panic into an error so later subscribers
// still receive the event.
func call(h EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, event.Type(), r)
		}
	}()
	return h(event)
}
