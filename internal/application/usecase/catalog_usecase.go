// internal/application/usecase/catalog_usecase.go
package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	cartdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/cart"
	catalogdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/catalog"
)

var ErrCatalogAPIMissing = errors.New("catalog: api is not configured")

// CatalogIndex keeps the product list in memory so Lookup never blocks on the network.
type CatalogIndex struct {
	api     CatalogAPI
	timeout time.Duration
	log     *zap.Logger

	mu   sync.RWMutex
	byID map[int64]catalogdom.Product
}

func NewCatalogIndex(api CatalogAPI, timeout time.Duration, log *zap.Logger) *CatalogIndex {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogIndex{
		api:     api,
		timeout: timeout,
		log:     log.Named("catalog"),
		byID:    map[int64]catalogdom.Product{},
	}
}

// Refresh reloads the index. On error the previous index is kept.
func (c *CatalogIndex) Refresh(ctx context.Context) error {
	if c.api == nil {
		return ErrCatalogAPIMissing
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	products, err := c.api.ListProducts(ctx)
	if err != nil {
		c.log.Warn("list products failed", zap.Error(err))
		return err
	}

	next := make(map[int64]catalogdom.Product, len(products))
	for _, p := range products {
		if p.ID <= 0 {
			continue
		}
		next[p.ID] = p
	}

	c.mu.Lock()
	c.byID = next
	c.mu.Unlock()

	c.log.Debug("catalog refreshed", zap.Int("products", len(next)))
	return nil
}

func (c *CatalogIndex) Lookup(productID int64) (catalogdom.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[productID]
	return p, ok
}

func (c *CatalogIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// ImageFor returns the display image of it: its own image, else the catalog image.
func ImageFor(it cartdom.Item, lookup catalogdom.Lookup) string {
	if it.Image != "" {
		return it.Image
	}
	if lookup == nil || !it.HasProduct() {
		return ""
	}
	if p, ok := lookup.Lookup(it.ProductID); ok {
		return p.Image
	}
	return ""
}
