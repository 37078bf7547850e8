// internal/application/usecase/cart_store.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	cartdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/cart"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/localstore"
	sessiondom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/session"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/platform/events"
)

var ErrCartStoreNotConfigured = errors.New("cart_store: not configured")

// ItemView is a line as consumers see it.
// Removing is a UI-only "pending removal" flag; it is never persisted.
type ItemView struct {
	cartdom.Item
	Removing bool
}

// CartView is an immutable snapshot of the active partition.
type CartView struct {
	Owner     sessiondom.OwnerKey
	Items     []ItemView
	Total     decimal.Decimal
	ItemCount int
	Loading   bool
}

type CartStoreOptions struct {
	MaxQuantity    int
	RequestTimeout time.Duration
	Notifier       Notifier
	Clock          Clock
	Logger         *zap.Logger
	NewID          func() string
}

// CartStore owns the item list of the current owner.
//
// Every mutation persists synchronously to the owner's partition and then publishes
// cart.updated. storage.changed / cart.updated / auth.changed all trigger Load, which
// re-derives everything from storage and the current session, so it is safe to run
// any number of times and in any order.
type CartStore struct {
	kv       localstore.Store
	sessions *SessionUsecase
	api      CartAPI
	bus      *events.Bus
	notifier Notifier
	clock    Clock
	log      *zap.Logger
	maxQty   int
	timeout  time.Duration
	newID    func() string

	loads singleflight.Group

	mu        sync.Mutex
	baseCtx   context.Context
	started   bool
	unsubs    []func()
	owner     sessiondom.OwnerKey
	items     []cartdom.Item
	removing  map[string]bool
	loading   bool
	loaded    bool
	failedFP  string
	listeners map[uint64]func(CartView)
	nextL     uint64
}

func NewCartStore(
	kv localstore.Store,
	sessions *SessionUsecase,
	api CartAPI,
	bus *events.Bus,
	opts CartStoreOptions,
) *CartStore {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxQuantity <= 0 {
		opts.MaxQuantity = cartdom.DefaultMaxQuantity
	}
	if opts.NewID == nil {
		opts.NewID = cartdom.NewItemID
	}
	return &CartStore{
		kv:        kv,
		sessions:  sessions,
		api:       api,
		bus:       bus,
		notifier:  opts.Notifier,
		clock:     opts.Clock,
		log:       opts.Logger.Named("cart_store"),
		maxQty:    opts.MaxQuantity,
		timeout:   opts.RequestTimeout,
		newID:     opts.NewID,
		baseCtx:   context.Background(),
		owner:     sessiondom.Guest,
		items:     []cartdom.Item{},
		removing:  map[string]bool{},
		listeners: map[uint64]func(CartView){},
	}
}

// Start subscribes to the three reload channels and performs the first Load.
func (s *CartStore) Start(ctx context.Context) error {
	if s == nil || s.kv == nil || s.sessions == nil {
		return ErrCartStoreNotConfigured
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.baseCtx = ctx
	s.mu.Unlock()

	unsubs := []func(){
		s.bus.Subscribe(events.TopicStorageChanged, s.onStorageChanged),
		s.bus.Subscribe(events.TopicCartUpdated, s.onCartUpdated),
		s.bus.Subscribe(events.TopicAuthChanged, s.onAuthChanged),
	}
	s.mu.Lock()
	s.unsubs = unsubs
	s.mu.Unlock()

	return s.Load(ctx)
}

// Stop removes the subscriptions made by Start.
func (s *CartStore) Stop() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.started = false
	s.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

func (s *CartStore) onStorageChanged(ev events.Event) {
	if ev.Key != "" && !localstore.IsPartitionKey(ev.Key) &&
		ev.Key != localstore.KeySession && ev.Key != localstore.KeyReconciled {
		return
	}
	s.reload("storage.changed")
}

func (s *CartStore) onCartUpdated(events.Event) {
	s.reload("cart.updated")
}

func (s *CartStore) onAuthChanged(ev events.Event) {
	ctx := s.context()

	s.mu.Lock()
	s.failedFP = ""
	s.mu.Unlock()

	// logout ends the authentication transition: the next login reconciles again
	if sessiondom.OwnerKey(ev.Key).IsGuest() {
		if err := s.kv.Delete(ctx, localstore.KeyReconciled); err != nil {
			s.log.Warn("clear reconcile marker failed", zap.Error(err))
		}
	}
	s.reload("auth.changed")
}

func (s *CartStore) reload(reason string) {
	if err := s.Load(s.context()); err != nil {
		s.log.Warn("reload failed", zap.String("reason", reason), zap.Error(err))
	}
}

func (s *CartStore) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

// Load reads the partition of the current owner. On the first load of a fresh
// authenticated session it runs the guest reconciliation before the partition is
// treated as authoritative. Concurrent calls share one execution.
func (s *CartStore) Load(ctx context.Context) error {
	if s == nil || s.kv == nil || s.sessions == nil {
		return ErrCartStoreNotConfigured
	}

	v, err, _ := s.loads.Do("load", func() (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return err
	}

	// delivered outside the singleflight call: listeners and cart.updated handlers re-enter Load
	res := v.(*loadResult)
	res.once.Do(func() {
		s.emit(res.view)
		if res.attempted != "" {
			s.bus.Publish(events.Event{Topic: events.TopicCartUpdated, Key: res.attempted.String()})
		}
	})
	return nil
}

// loadResult is shared by every caller of one singleflight execution; once makes
// sure its snapshot and event go out a single time.
type loadResult struct {
	view      CartView
	attempted sessiondom.OwnerKey // set when a reconciliation ran
	once      *sync.Once
}

func (s *CartStore) load(ctx context.Context) (*loadResult, error) {
	owner := sessiondom.Guest
	sess, authed := s.sessions.Current(ctx)
	if authed {
		owner = sessiondom.KeyFor(*sess.User)
	}

	var attempted sessiondom.OwnerKey
	if authed && s.needsReconcile(ctx, sess) {
		s.setLoading(owner)
		s.reconcile(ctx, sess, owner)
		attempted = owner
	}

	items, err := s.readPartition(ctx, owner)
	if err != nil {
		s.finishLoading()
		return nil, fmt.Errorf("cart_store: load %s: %w", owner, err)
	}

	s.mu.Lock()
	s.owner = owner
	s.items = items
	s.loading = false
	s.loaded = true
	s.pruneRemovingLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	return &loadResult{view: view, attempted: attempted, once: &sync.Once{}}, nil
}

func (s *CartStore) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return s.Load(ctx)
}

// ------------------------------------------------------------
// mutations
// ------------------------------------------------------------

// Add puts quantity units of (name, price) in the cart, merging with an identical line.
func (s *CartStore) Add(ctx context.Context, name, price string, quantity int) (cartdom.Item, error) {
	return s.AddItem(ctx, cartdom.NewLine{Name: name, Price: price, Quantity: quantity})
}

// AddItem is Add with the optional catalog link and image.
func (s *CartStore) AddItem(ctx context.Context, in cartdom.NewLine) (cartdom.Item, error) {
	var added cartdom.Item
	_, err := s.mutate(ctx, func(c *cartdom.Cart) (bool, error) {
		it, err := c.Add(in, s.newID)
		if err != nil {
			return false, err
		}
		added = it
		return true, nil
	})
	if err != nil {
		return cartdom.Item{}, err
	}

	s.notifier.Notify(ctx, fmt.Sprintf("Added %d × %s to your cart", in.Quantity, added.Name))
	return added, nil
}

// SetQuantity sets an absolute quantity; value < 1 removes the line.
func (s *CartStore) SetQuantity(ctx context.Context, id string, value int) error {
	_, err := s.mutate(ctx, func(c *cartdom.Cart) (bool, error) {
		return c.SetQuantity(id, value), nil
	})
	return err
}

// UpdateQuantity applies delta; a result < 1 removes the line.
func (s *CartStore) UpdateQuantity(ctx context.Context, id string, delta int) error {
	_, err := s.mutate(ctx, func(c *cartdom.Cart) (bool, error) {
		return c.UpdateQuantity(id, delta), nil
	})
	return err
}

// Remove deletes the line immediately. UI layers that animate the removal call
// MarkRemoving first and Remove when their animation is done.
func (s *CartStore) Remove(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, func(c *cartdom.Cart) (bool, error) {
		return c.Remove(id), nil
	})
	return err
}

func (s *CartStore) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, func(c *cartdom.Cart) (bool, error) {
		c.Clear()
		return true, nil
	})
	return err
}

// MarkRemoving flags id as pending removal for subscribers. Nothing is persisted.
func (s *CartStore) MarkRemoving(id string) bool {
	s.mu.Lock()
	c := cartdom.Cart{Items: s.items}
	if c.IndexOf(id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.removing[id] = true
	view := s.viewLocked()
	s.mu.Unlock()

	s.emit(view)
	return true
}

func (s *CartStore) mutate(ctx context.Context, fn func(c *cartdom.Cart) (bool, error)) (bool, error) {
	if s == nil || s.kv == nil || s.sessions == nil {
		return false, ErrCartStoreNotConfigured
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}

	s.mu.Lock()
	c := cartdom.Cart{Items: cartdom.Clone(s.items), MaxQuantity: s.maxQty}
	changed, err := fn(&c)
	if err != nil || !changed {
		s.mu.Unlock()
		return false, err
	}

	owner := s.owner
	if err := s.writePartition(ctx, owner, c.Items); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.items = c.Items
	s.pruneRemovingLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.emit(view)
	s.bus.Publish(events.Event{Topic: events.TopicCartUpdated, Key: owner.String()})
	return true, nil
}

// ------------------------------------------------------------
// reads
// ------------------------------------------------------------

func (s *CartStore) Snapshot() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Items returns a copy of the active lines.
func (s *CartStore) Items() []cartdom.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartdom.Clone(s.items)
}

func (s *CartStore) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartdom.Total(s.items)
}

func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartdom.ItemCount(s.items)
}

func (s *CartStore) Owner() sessiondom.OwnerKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Subscribe delivers a snapshot after every load and mutation.
// fn runs on the goroutine that changed the cart. The Loading=true snapshot is
// delivered while a load is still running, so fn must not call Load or a mutation
// synchronously when it sees Loading set.
func (s *CartStore) Subscribe(fn func(CartView)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextL++
	id := s.nextL
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *CartStore) emit(view CartView) {
	s.mu.Lock()
	ls := make([]func(CartView), 0, len(s.listeners))
	for _, fn := range s.listeners {
		ls = append(ls, fn)
	}
	s.mu.Unlock()

	for _, fn := range ls {
		fn(view)
	}
}

func (s *CartStore) viewLocked() CartView {
	items := make([]ItemView, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, ItemView{Item: it, Removing: s.removing[it.ID]})
	}
	return CartView{
		Owner:     s.owner,
		Items:     items,
		Total:     cartdom.Total(s.items),
		ItemCount: cartdom.ItemCount(s.items),
		Loading:   s.loading,
	}
}

func (s *CartStore) pruneRemovingLocked() {
	if len(s.removing) == 0 {
		return
	}
	c := cartdom.Cart{Items: s.items}
	for id := range s.removing {
		if c.IndexOf(id) < 0 {
			delete(s.removing, id)
		}
	}
}

func (s *CartStore) setLoading(owner sessiondom.OwnerKey) {
	s.mu.Lock()
	s.loading = true
	view := s.viewLocked()
	s.mu.Unlock()

	s.log.Debug("loading", zap.String("owner", owner.String()))
	s.emit(view)
}

func (s *CartStore) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// ------------------------------------------------------------
// persistence
// ------------------------------------------------------------

func (s *CartStore) readPartition(ctx context.Context, owner sessiondom.OwnerKey) ([]cartdom.Item, error) {
	raw, ok, err := s.kv.Get(ctx, localstore.PartitionKey(owner.String()))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []cartdom.Item{}, nil
	}
	return cartdom.DecodeItems(raw), nil
}

func (s *CartStore) writePartition(ctx context.Context, owner sessiondom.OwnerKey, items []cartdom.Item) error {
	raw, err := cartdom.EncodeItems(items)
	if err != nil {
		return fmt.Errorf("cart_store: encode %s: %w", owner, err)
	}
	if err := s.kv.Set(ctx, localstore.PartitionKey(owner.String()), raw); err != nil {
		return fmt.Errorf("cart_store: write %s: %w", owner, err)
	}
	return nil
}

func (s *CartStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
