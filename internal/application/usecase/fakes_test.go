package usecase

import (
	"context"
	"sync"
	"time"

	catalogdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/catalog"
	sessiondom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/session"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type fakeCartAPI struct {
	mu sync.Mutex

	syncErr  error
	fetchErr error
	server   []RemoteCartItem

	syncCalls  [][]CartLine
	fetchCalls int
	tokens     []string

	checkoutURL   string
	checkoutErr   error
	checkoutCalls []CheckoutSessionRequest

	products []catalogdom.Product
	listErr  error
}

func (f *fakeCartAPI) SyncCart(_ context.Context, token string, lines []CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls = append(f.syncCalls, append([]CartLine(nil), lines...))
	f.tokens = append(f.tokens, token)
	return f.syncErr
}

func (f *fakeCartAPI) FetchCart(_ context.Context, token string) ([]RemoteCartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	f.tokens = append(f.tokens, token)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]RemoteCartItem(nil), f.server...), nil
}

func (f *fakeCartAPI) CreateCheckoutSession(_ context.Context, req CheckoutSessionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkoutCalls = append(f.checkoutCalls, req)
	return f.checkoutURL, f.checkoutErr
}

func (f *fakeCartAPI) ListProducts(context.Context) ([]catalogdom.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products, f.listErr
}

func (f *fakeCartAPI) counts() (syncs, fetches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.syncCalls), f.fetchCalls
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(_ context.Context, msg string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

func accountSession(id int64, token string) sessiondom.Session {
	return sessiondom.Session{
		Token: token,
		User: &sessiondom.User{
			ID:       id,
			Name:     "Ana",
			Email:    "ana@example.com",
			Provider: sessiondom.ProviderPassword,
		},
	}
}
