package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	httpout "github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/http"
	uc "github.com/MaYdaN875/Papeleria-store-sub000/internal/application/usecase"
	cartdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/cart"
	catalogdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/catalog"
	sessiondom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/session"
)

func TestUserMessage(t *testing.T) {
	verr := &uc.CheckoutValidationError{Message: "remove Hoja suelta"}
	assert.Equal(t, "remove Hoja suelta", userMessage(fmt.Errorf("wrapped: %w", verr)))
	assert.Equal(t, "your cart is empty", userMessage(uc.ErrCheckoutEmptyCart))
	assert.Contains(t, userMessage(uc.ErrCheckoutLoginRequired), "log in")
	assert.Equal(t, "Producto sin stock",
		userMessage(fmt.Errorf("checkout: %w", &httpout.APIError{Op: "checkout", Message: "Producto sin stock"})))
	assert.Equal(t, "boom", userMessage(errors.New("boom")))
}

func TestPrintCart(t *testing.T) {
	var buf bytes.Buffer
	v := uc.CartView{
		Owner: sessiondom.OwnerKey("account:7"),
		Items: []uc.ItemView{
			{Item: cartdom.Item{ID: "a", Name: "Cuaderno", Price: "65.00", Quantity: 2, ProductID: 1}},
			{Item: cartdom.Item{ID: "b", Name: "Hoja", Price: "1.00", Quantity: 1}, Removing: true},
		},
		Total:     decimal.RequireFromString("131"),
		ItemCount: 3,
	}
	lookup := catalogdom.LookupFunc(func(id int64) (catalogdom.Product, bool) {
		return catalogdom.Product{ID: id, Image: "/img/1.jpg"}, id == 1
	})

	printCart(&buf, v, lookup)
	out := buf.String()
	assert.Contains(t, out, "owner: account:7")
	assert.Contains(t, out, "130.00")
	assert.Contains(t, out, "/img/1.jpg")
	assert.Contains(t, out, "Hoja (removing)")
	assert.Contains(t, out, "items: 3  total: 131.00")

	buf.Reset()
	printCart(&buf, uc.CartView{Owner: sessiondom.Guest}, nil)
	assert.Equal(t, "owner: guest\n(empty)\n", buf.String())
}

func TestViewKey(t *testing.T) {
	a := uc.CartView{Owner: sessiondom.Guest, Items: []uc.ItemView{{Item: cartdom.Item{ID: "x", Quantity: 1}}}}
	b := a
	b.Items = []uc.ItemView{{Item: cartdom.Item{ID: "x", Quantity: 2}}}
	assert.NotEqual(t, viewKey(a), viewKey(b))
	assert.Equal(t, viewKey(a), viewKey(a))
}
