package events

import (
	"sync"
)

// EventHandler defines a function type where its input type is the generic type.
type EventHandler[T any] func(T)

// EventEmitter describes a provider which can subscribe EventHandler methods for callback when the event type (generic)
// is published. It is safe for concurrent use, and its zero value is ready to use.
type EventEmitter[T any] struct {
	// subscriptions defines the EventHandler methods which should be invoked when a new event is published to this
	// emitter, keyed by subscription ID.
	subscriptions map[uint64]EventHandler[T]

	// order describes the subscription IDs in the order they were subscribed.
	order []uint64

	// nextID is the ID given to the next subscription.
	nextID uint64

	lock sync.RWMutex
}

// Publish emits the provided event by calling every EventHandler subscribed, in subscription order. Handlers are
// called on the publishing goroutine, so they must not block.
func (e *EventEmitter[T]) Publish(event T) {
	e.lock.RLock()
	handlers := make([]EventHandler[T], 0, len(e.order))
	for _, id := range e.order {
		handlers = append(handlers, e.subscriptions[id])
	}
	e.lock.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Subscribe adds an EventHandler to the list of subscribed EventHandler objects for this emitter. When an event is
// published, the callback will be triggered with the event data. The returned function removes the subscription.
func (e *EventEmitter[T]) Subscribe(callback EventHandler[T]) (unsubscribe func()) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.subscriptions == nil {
		e.subscriptions = make(map[uint64]EventHandler[T])
	}
	id := e.nextID
	e.nextID++
	e.subscriptions[id] = callback
	e.order = append(e.order, id)

	return func() {
		e.lock.Lock()
		defer e.lock.Unlock()
		if _, ok := e.subscriptions[id]; !ok {
			return
		}
		delete(e.subscriptions, id)
		for i, existing := range e.order {
			if existing == id {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
}

// SubscriberCount returns the amount of active subscriptions.
func (e *EventEmitter[T]) SubscriberCount() int {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return len(e.order)
}
