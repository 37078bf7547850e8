// internal/adapters/out/http/cart_api_client.go
package httpout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/MaYdaN875/Papeleria-store-sub000/internal/application/usecase"
	cartdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/cart"
	catalogdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/catalog"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/common"
)

var ErrBaseURLEmpty = errors.New("cart api: base url is empty")

const maxBody = 1 << 20

// APIError is a non-2xx reply or a reply with ok=false.
// Message is the API's own text when it sent one.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cart api: %s: status=%d", e.Op, e.Status)
	}
	return fmt.Sprintf("cart api: %s: status=%d: %s", e.Op, e.Status, e.Message)
}

// CartAPIClient talks to the PHP shop API.
//   - POST {base}/cart/sync
//   - GET  {base}/cart?token=
//   - POST {base}/checkout/session
//   - GET  {base}/products
type CartAPIClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

var (
	_ usecase.CartAPI     = (*CartAPIClient)(nil)
	_ usecase.CheckoutAPI = (*CartAPIClient)(nil)
	_ usecase.CatalogAPI  = (*CartAPIClient)(nil)
)

// baseURL example:
//   - prod : https://papeleria.example/api
//   - local: http://localhost:8000/api
func NewCartAPIClient(baseURL string, timeout time.Duration, log *zap.Logger) *CartAPIClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CartAPIClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log.Named("cart_api"),
	}
}

// ------------------------------------------------------------
// wire shapes
// ------------------------------------------------------------

// flexBool accepts true/false, 1/0 and their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "true", "1":
		*b = true
	default:
		*b = false
	}
	return nil
}

type envelope struct {
	OK      flexBool `json:"ok"`
	Message string   `json:"message"`
	Error   string   `json:"error"`
}

func (e envelope) text() string {
	if m := strings.TrimSpace(e.Message); m != "" {
		return m
	}
	return strings.TrimSpace(e.Error)
}

type syncRequest struct {
	Token string             `json:"token"`
	Items []usecase.CartLine `json:"items"`
}

type remoteItem struct {
	ProductID common.FlexInt    `json:"product_id"`
	Quantity  common.FlexInt    `json:"quantity"`
	Name      string            `json:"name"`
	Price     common.FlexString `json:"price"`
}

type fetchResponse struct {
	envelope
	Items []remoteItem `json:"items"`
}

type checkoutRequest struct {
	Token      string             `json:"token"`
	Items      []usecase.CartLine `json:"items"`
	SuccessURL string             `json:"success_url,omitempty"`
	CancelURL  string             `json:"cancel_url,omitempty"`
}

type checkoutResponse struct {
	envelope
	URL string `json:"url"`
}

type remoteProduct struct {
	ID       common.FlexInt    `json:"id"`
	Name     string            `json:"name"`
	Price    common.FlexString `json:"price"`
	Image    string            `json:"image"`
	Category string            `json:"category"`
}

type productsResponse struct {
	envelope
	Products []remoteProduct `json:"products"`
	Data     []remoteProduct `json:"data"`
}

// ------------------------------------------------------------
// operations
// ------------------------------------------------------------

// SyncCart pushes guest lines into the server cart of token.
func (c *CartAPIClient) SyncCart(ctx context.Context, token string, lines []usecase.CartLine) error {
	if lines == nil {
		lines = []usecase.CartLine{}
	}
	var out envelope
	status, err := c.do(ctx, "sync", http.MethodPost, "/cart/sync", syncRequest{
		Token: strings.TrimSpace(token),
		Items: lines,
	}, &out)
	if err != nil {
		return err
	}
	if !out.OK {
		return &APIError{Op: "sync", Status: status, Message: out.text()}
	}
	c.log.Debug("cart synced", zap.Int("lines", len(lines)))
	return nil
}

// FetchCart reads the authoritative server cart.
func (c *CartAPIClient) FetchCart(ctx context.Context, token string) ([]usecase.RemoteCartItem, error) {
	path := "/cart?token=" + url.QueryEscape(strings.TrimSpace(token))

	var out fetchResponse
	status, err := c.do(ctx, "fetch", http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, &APIError{Op: "fetch", Status: status, Message: out.text()}
	}

	items := make([]usecase.RemoteCartItem, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, usecase.RemoteCartItem{
			ProductID: it.ProductID.Int64(),
			Quantity:  it.Quantity.Int(),
			Name:      strings.TrimSpace(it.Name),
			Price:     cartdom.NormalizePrice(it.Price.String()),
		})
	}
	return items, nil
}

// CreateCheckoutSession asks the API for a payment-provider session and returns its URL.
func (c *CartAPIClient) CreateCheckoutSession(ctx context.Context, req usecase.CheckoutSessionRequest) (string, error) {
	var out checkoutResponse
	status, err := c.do(ctx, "checkout", http.MethodPost, "/checkout/session", checkoutRequest{
		Token:      strings.TrimSpace(req.Token),
		Items:      req.Lines,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	}, &out)
	if err != nil {
		return "", err
	}
	if !out.OK {
		return "", &APIError{Op: "checkout", Status: status, Message: out.text()}
	}
	return strings.TrimSpace(out.URL), nil
}

// ListProducts reads the catalog. Both a bare array and {ok, products|data} are accepted.
func (c *CartAPIClient) ListProducts(ctx context.Context) ([]catalogdom.Product, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, "products", http.MethodGet, "/products", nil, &raw); err != nil {
		return nil, err
	}

	var list []remoteProduct
	if err := json.Unmarshal(raw, &list); err != nil {
		var out productsResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, errors.Wrap(err, "cart api: products: decode")
		}
		list = out.Products
		if len(list) == 0 {
			list = out.Data
		}
	}

	products := make([]catalogdom.Product, 0, len(list))
	for _, p := range list {
		products = append(products, catalogdom.Product{
			ID:       p.ID.Int64(),
			Name:     strings.TrimSpace(p.Name),
			Price:    cartdom.NormalizePrice(p.Price.String()),
			Image:    strings.TrimSpace(p.Image),
			Category: strings.TrimSpace(p.Category),
		})
	}
	return products, nil
}

// do sends one JSON request and decodes the reply into out.
// Non-2xx replies become *APIError carrying the API's message when it sent one.
func (c *CartAPIClient) do(ctx context.Context, op, method, path string, body any, out any) (int, error) {
	if c == nil || c.baseURL == "" {
		return 0, ErrBaseURLEmpty
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, errors.Wrapf(err, "cart api: %s: encode", op)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, errors.Wrapf(err, "cart api: %s: build request", op)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "cart api: %s", op)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return res.StatusCode, errors.Wrapf(err, "cart api: %s: read body", op)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var env envelope
		_ = json.Unmarshal(data, &env)
		msg := env.text()
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		c.log.Warn("api call failed",
			zap.String("op", op),
			zap.Int("status", res.StatusCode),
			zap.String("message", msg),
		)
		return res.StatusCode, &APIError{Op: op, Status: res.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return res.StatusCode, errors.Wrapf(err, "cart api: %s: decode", op)
		}
	}
	return res.StatusCode, nil
}
