package events

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEventPublishingAndSubscribing creates EventEmitter objects, subscribes EventHandler callbacks to them, and
// ensures that the events are received as intended.
func TestEventPublishingAndSubscribing(t *testing.T) {
	type testEvent struct {
		value int
	}

	var emitterA, emitterB EventEmitter[testEvent]
	var received []int
	emitterA.Subscribe(func(event testEvent) {
		received = append(received, event.value)
	})
	emitterA.Subscribe(func(event testEvent) {
		received = append(received, event.value*10)
	})

	emitterA.Publish(testEvent{value: 1})
	emitterB.Publish(testEvent{value: 2})

	// Handlers run in subscription order, and only for their own emitter
	assert.Equal(t, []int{1, 10}, received)
	assert.Equal(t, 2, emitterA.SubscriberCount())
	assert.Equal(t, 0, emitterB.SubscriberCount())
}

func TestUnsubscribe(t *testing.T) {
	var emitter EventEmitter[string]
	var first, second int
	unsubscribeFirst := emitter.Subscribe(func(string) { first++ })
	emitter.Subscribe(func(string) { second++ })

	emitter.Publish("a")
	unsubscribeFirst()
	// Unsubscribing twice is a no-op
	unsubscribeFirst()
	emitter.Publish("b")

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 1, emitter.SubscriberCount())
}

func TestConcurrentPublish(t *testing.T) {
	var emitter EventEmitter[int]
	var total atomic.Int64
	emitter.Subscribe(func(v int) { total.Add(int64(v)) })

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			emitter.Publish(v)
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 5050, total.Load())
}
