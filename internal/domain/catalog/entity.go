// internal/domain/catalog/entity.go
package catalog

// Product is the part of a catalog product the cart needs.
type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image,omitempty"`
	Category string `json:"category,omitempty"`
}

// Lookup resolves a product by catalog id. It must not block.
type Lookup interface {
	Lookup(productID int64) (Product, bool)
}

// LookupFunc adapts a plain function to Lookup.
type LookupFunc func(productID int64) (Product, bool)

func (f LookupFunc) Lookup(productID int64) (Product, bool) { return f(productID) }
