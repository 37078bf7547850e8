// internal/application/usecase/ports.go
package usecase

import (
	"context"

	catalogdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/catalog"
)

// CartLine is the (product_id, quantity) pair the shop API understands.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// RemoteCartItem is one line of the authoritative server-side cart.
type RemoteCartItem struct {
	ProductID int64
	Quantity  int
	Name      string
	Price     string
}

// CartAPI is the remote cart of the shop API.
type CartAPI interface {
	SyncCart(ctx context.Context, token string, lines []CartLine) error
	FetchCart(ctx context.Context, token string) ([]RemoteCartItem, error)
}

// CheckoutSessionRequest asks the API for a payment-provider redirect.
type CheckoutSessionRequest struct {
	Token      string
	Lines      []CartLine
	SuccessURL string
	CancelURL  string
}

// CheckoutAPI creates payment sessions. It returns the redirect URL.
type CheckoutAPI interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (string, error)
}

// CatalogAPI lists the catalog products.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]catalogdom.Product, error)
}

// Notifier shows a transient message to the user. Fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) {}
