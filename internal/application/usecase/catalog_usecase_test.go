package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/cart"
	catalogdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/catalog"
)

func TestCatalogIndex_Refresh(t *testing.T) {
	api := &fakeCartAPI{products: []catalogdom.Product{
		{ID: 1, Name: "Cuaderno", Price: "65.00", Image: "/img/cuaderno.jpg"},
		{ID: 0, Name: "sin id"},
		{ID: 2, Name: "Goma", Price: "5.50"},
	}}
	idx := NewCatalogIndex(api, 0, nil)

	require.NoError(t, idx.Refresh(context.Background()))
	assert.Equal(t, 2, idx.Len())

	p, ok := idx.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "Cuaderno", p.Name)

	_, ok = idx.Lookup(0)
	assert.False(t, ok)
}

func TestCatalogIndex_FailedRefreshKeepsIndex(t *testing.T) {
	api := &fakeCartAPI{products: []catalogdom.Product{{ID: 1, Name: "Cuaderno"}}}
	idx := NewCatalogIndex(api, 0, nil)
	require.NoError(t, idx.Refresh(context.Background()))

	api.listErr = errors.New("down")
	assert.Error(t, idx.Refresh(context.Background()))
	assert.Equal(t, 1, idx.Len())

	assert.ErrorIs(t, NewCatalogIndex(nil, 0, nil).Refresh(context.Background()), ErrCatalogAPIMissing)
}

func TestImageFor(t *testing.T) {
	lookup := catalogdom.LookupFunc(func(id int64) (catalogdom.Product, bool) {
		if id == 1 {
			return catalogdom.Product{ID: 1, Image: "/img/catalog.jpg"}, true
		}
		return catalogdom.Product{}, false
	})

	assert.Equal(t, "/img/own.jpg", ImageFor(cartdom.Item{Image: "/img/own.jpg", ProductID: 1}, lookup))
	assert.Equal(t, "/img/catalog.jpg", ImageFor(cartdom.Item{ProductID: 1}, lookup))
	assert.Equal(t, "", ImageFor(cartdom.Item{ProductID: 2}, lookup))
	assert.Equal(t, "", ImageFor(cartdom.Item{}, lookup))
	assert.Equal(t, "", ImageFor(cartdom.Item{ProductID: 1}, nil))
}
