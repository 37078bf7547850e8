// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	cartdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/cart"
)

var (
	ErrCheckoutNotConfigured = errors.New("checkout: usecase is not configured")
	ErrCheckoutAPIMissing    = errors.New("checkout: api is not configured")
	ErrCheckoutEmptyCart     = errors.New("checkout: cart is empty")
	ErrCheckoutLoginRequired = errors.New("checkout: login required")
	ErrCheckoutNoURL         = errors.New("checkout: api returned no redirect url")
)

// CheckoutValidationError lists the lines that cannot be paid for.
// Message is meant to be shown to the user as is.
type CheckoutValidationError struct {
	Names   []string
	Message string
}

func (e *CheckoutValidationError) Error() string {
	return "checkout: " + e.Message
}

// CheckoutUsecase turns the current cart into a payment-provider session.
// It never modifies the cart: the shop API clears the server cart once payment succeeds.
type CheckoutUsecase struct {
	cart       *CartStore
	sessions   *SessionUsecase
	api        CheckoutAPI
	successURL string
	cancelURL  string
	log        *zap.Logger
}

type CheckoutURLs struct {
	Success string
	Cancel  string
}

func NewCheckoutUsecase(cart *CartStore, sessions *SessionUsecase, api CheckoutAPI, urls CheckoutURLs, log *zap.Logger) *CheckoutUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutUsecase{
		cart:       cart,
		sessions:   sessions,
		api:        api,
		successURL: strings.TrimSpace(urls.Success),
		cancelURL:  strings.TrimSpace(urls.Cancel),
		log:        log.Named("checkout"),
	}
}

// Validate checks the cart before any network call:
// no empty cart, no line without a catalog id, and a valid session.
func (u *CheckoutUsecase) Validate(ctx context.Context) ([]CartLine, string, error) {
	if u.cart == nil || u.sessions == nil {
		return nil, "", ErrCheckoutNotConfigured
	}
	if err := u.cart.ensureLoaded(ctx); err != nil {
		return nil, "", err
	}

	items := u.cart.Items()
	if len(items) == 0 {
		return nil, "", ErrCheckoutEmptyCart
	}
	if err := validateLines(items); err != nil {
		return nil, "", err
	}

	sess, ok := u.sessions.Current(ctx)
	if !ok {
		return nil, "", ErrCheckoutLoginRequired
	}

	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines, sess.Token, nil
}

// Start validates the cart and asks the API for a checkout session.
// It returns the redirect URL of the payment provider.
func (u *CheckoutUsecase) Start(ctx context.Context) (string, error) {
	lines, token, err := u.Validate(ctx)
	if err != nil {
		return "", err
	}
	if u.api == nil {
		return "", ErrCheckoutAPIMissing
	}

	cctx, cancel := u.cart.withTimeout(ctx)
	defer cancel()

	url, err := u.api.CreateCheckoutSession(cctx, CheckoutSessionRequest{
		Token:      token,
		Lines:      lines,
		SuccessURL: u.successURL,
		CancelURL:  u.cancelURL,
	})
	if err != nil {
		u.log.Warn("create checkout session failed", zap.Error(err), zap.Int("lines", len(lines)))
		return "", fmt.Errorf("checkout: create session: %w", err)
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return "", ErrCheckoutNoURL
	}

	u.log.Info("checkout session created", zap.Int("lines", len(lines)))
	return url, nil
}

func validateLines(items []cartdom.Item) error {
	var names []string
	for _, it := range items {
		if !it.HasProduct() {
			names = append(names, it.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &CheckoutValidationError{
		Names: names,
		Message: fmt.Sprintf(
			"some items in your cart are no longer linked to a product (%s). Remove them and add them again from the catalog.",
			strings.Join(names, ", "),
		),
	}
}
