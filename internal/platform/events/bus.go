// internal/platform/events/bus.go
package events

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Topic names an application notification.
type Topic string

const (
	// TopicStorageChanged fires when persisted state changed outside this process/handle.
	TopicStorageChanged Topic = "storage.changed"
	// TopicCartUpdated fires after the cart store mutated or reconciled a partition.
	TopicCartUpdated Topic = "cart.updated"
	// TopicAuthChanged fires after the session was written or cleared.
	TopicAuthChanged Topic = "auth.changed"
)

type Event struct {
	Topic Topic
	Key   string // storage key or owner key, when relevant
	At    time.Time
}

type Handler func(Event)

// Bus is a small in-process pub/sub.
//   - any number of independent listeners per topic
//   - Publish is fire-and-forget: a panicking listener is logged and skipped
//   - no ordering guarantee across listeners
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic]map[uint64]Handler
	next uint64
	log  *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		subs: map[Topic]map[uint64]Handler{},
		log:  log.Named("events"),
	}
}

// Subscribe registers h for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	if b == nil || h == nil {
		return func() {}
	}

	b.mu.Lock()
	b.next++
	id := b.next
	if b.subs[topic] == nil {
		b.subs[topic] = map[uint64]Handler{}
	}
	b.subs[topic][id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to the current listeners of ev.Topic on the caller's goroutine.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	hs := make([]Handler, 0, len(b.subs[ev.Topic]))
	for _, h := range b.subs[ev.Topic] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h Handler, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error("listener panicked",
				zap.String("topic", string(ev.Topic)),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	h(ev)
}

// WatchFunc matches localstore.Watcher.Watch.
type WatchFunc func(ctx context.Context, fn func(key string)) error

// PumpStorage forwards backend change notifications as TopicStorageChanged until ctx is done.
func (b *Bus) PumpStorage(ctx context.Context, watch WatchFunc) error {
	if watch == nil {
		return nil
	}
	return watch(ctx, func(key string) {
		b.Publish(Event{Topic: TopicStorageChanged, Key: key})
	})
}
