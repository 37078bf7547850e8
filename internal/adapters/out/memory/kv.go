// internal/adapters/out/memory/kv.go
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/localstore"
)

// Space is an in-memory key-value space shared by any number of handles.
// A handle plays the role of one execution context (one tab, one process):
// writes through a handle are reported to the watchers of every other handle.
type Space struct {
	mu      sync.RWMutex
	data    map[string][]byte
	nextID  uint64
	watches map[uint64]*watch
}

type watch struct {
	handle uint64
	ch     chan string
}

func NewSpace() *Space {
	return &Space{
		data:    map[string][]byte{},
		watches: map[uint64]*watch{},
	}
}

// Handle returns a new view of the space.
func (s *Space) Handle() *KV {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()
	return &KV{space: s, id: id}
}

func (s *Space) notify(from uint64, key string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.watches {
		if w.handle == from {
			continue
		}
		select {
		case w.ch <- key:
		default:
			// a watcher that is far behind will reload anyway
		}
	}
}

// KV is one handle on a Space. It implements localstore.Store and localstore.Watcher.
type KV struct {
	space *Space
	id    uint64
}

var (
	_ localstore.Store   = (*KV)(nil)
	_ localstore.Watcher = (*KV)(nil)
)

// New returns a handle on a private space.
func New() *KV {
	return NewSpace().Handle()
}

func (kv *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, localstore.ErrEmptyKey
	}
	kv.space.mu.RLock()
	v, ok := kv.space.data[key]
	kv.space.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (kv *KV) Set(_ context.Context, key string, value []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return localstore.ErrEmptyKey
	}
	v := make([]byte, len(value))
	copy(v, value)

	kv.space.mu.Lock()
	kv.space.data[key] = v
	kv.space.mu.Unlock()

	kv.space.notify(kv.id, key)
	return nil
}

func (kv *KV) Delete(_ context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return localstore.ErrEmptyKey
	}
	kv.space.mu.Lock()
	_, existed := kv.space.data[key]
	delete(kv.space.data, key)
	kv.space.mu.Unlock()

	if existed {
		kv.space.notify(kv.id, key)
	}
	return nil
}

// Watch reports writes made through other handles until ctx is done.
func (kv *KV) Watch(ctx context.Context, fn func(key string)) error {
	w := &watch{handle: kv.id, ch: make(chan string, 64)}

	kv.space.mu.Lock()
	kv.space.nextID++
	wid := kv.space.nextID
	kv.space.watches[wid] = w
	kv.space.mu.Unlock()

	defer func() {
		kv.space.mu.Lock()
		delete(kv.space.watches, wid)
		kv.space.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case key := <-w.ch:
			fn(key)
		}
	}
}
