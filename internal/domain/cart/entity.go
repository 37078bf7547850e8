// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidItem     = errors.New("cart: invalid item")
	ErrInvalidQuantity = errors.New("cart: invalid quantity")
)

// DefaultMaxQuantity caps a single line when the quantity is set explicitly.
const DefaultMaxQuantity = 99

// Item is one line of a cart.
//   - Price stays a decimal string ("65.00"); ParsePrice is the only place it is read as a number.
//   - ProductID == 0 means "no catalog link" (legacy/manual entry). Such items never reach checkout.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	ProductID int64  `json:"productId,omitempty"`
	Image     string `json:"image,omitempty"`
}

// HasProduct reports whether the item carries a usable catalog id.
func (it Item) HasProduct() bool { return it.ProductID > 0 }

// Subtotal is parsedPrice * quantity.
func (it Item) Subtotal() decimal.Decimal {
	return ParsePrice(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// NewLine is the input of Cart.Add.
type NewLine struct {
	Name      string
	Price     string
	Quantity  int
	ProductID int64
	Image     string
}

// Cart is the item list of one ownership partition.
// It is a plain value: persistence and notification live in the application layer.
type Cart struct {
	Items       []Item
	MaxQuantity int
}

func (c *Cart) maxQty() int {
	if c.MaxQuantity <= 0 {
		return DefaultMaxQuantity
	}
	return c.MaxQuantity
}

// Add merges into an existing line with the same (name, price), or appends a new line
// with the id produced by newID. The resulting quantity is clamped to MaxQuantity.
// Returns the resulting line.
func (c *Cart) Add(in NewLine, newID func() string) (Item, error) {
	name := strings.TrimSpace(in.Name)
	price := strings.TrimSpace(in.Price)
	if name == "" || price == "" {
		return Item{}, ErrInvalidItem
	}
	if in.Quantity < 1 {
		return Item{}, ErrInvalidQuantity
	}

	if idx := c.indexByNamePrice(name, price); idx >= 0 {
		it := &c.Items[idx]
		it.Quantity = min(it.Quantity+in.Quantity, c.maxQty())
		// a catalog add upgrades a legacy line that had no product link
		if !it.HasProduct() && in.ProductID > 0 {
			it.ProductID = in.ProductID
		}
		if it.Image == "" {
			it.Image = strings.TrimSpace(in.Image)
		}
		return *it, nil
	}

	if newID == nil {
		newID = NewItemID
	}
	it := Item{
		ID:        newID(),
		Name:      name,
		Price:     price,
		Quantity:  min(in.Quantity, c.maxQty()),
		ProductID: in.ProductID,
		Image:     strings.TrimSpace(in.Image),
	}
	c.Items = append(c.Items, it)
	return it, nil
}

// SetQuantity sets the quantity of id. value < 1 removes the line; larger values are
// clamped to MaxQuantity. Unknown ids are a no-op (changed=false).
func (c *Cart) SetQuantity(id string, value int) (changed bool) {
	idx := c.IndexOf(id)
	if idx < 0 {
		return false
	}
	if value < 1 {
		c.Items = removeIndex(c.Items, idx)
		return true
	}
	if value > c.maxQty() {
		value = c.maxQty()
	}
	c.Items[idx].Quantity = value
	return true
}

// UpdateQuantity applies delta to the current quantity of id.
func (c *Cart) UpdateQuantity(id string, delta int) (changed bool) {
	idx := c.IndexOf(id)
	if idx < 0 {
		return false
	}
	return c.SetQuantity(id, c.Items[idx].Quantity+delta)
}

// Remove deletes id. Unknown ids are a no-op.
func (c *Cart) Remove(id string) (changed bool) {
	idx := c.IndexOf(id)
	if idx < 0 {
		return false
	}
	c.Items = removeIndex(c.Items, idx)
	return true
}

func (c *Cart) Clear() {
	c.Items = []Item{}
}

// Total is the sum of parsedPrice * quantity. Unparsable prices count as zero.
func (c Cart) Total() decimal.Decimal {
	return Total(c.Items)
}

// ItemCount is the sum of quantities, not the number of lines.
func (c Cart) ItemCount() int {
	return ItemCount(c.Items)
}

func (c Cart) IndexOf(id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Cart) indexByNamePrice(name, price string) int {
	for i := range c.Items {
		if c.Items[i].Name == name && c.Items[i].Price == price {
			return i
		}
	}
	return -1
}

func Total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

func ItemCount(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Clone returns a copy that shares nothing with src.
func Clone(src []Item) []Item {
	out := make([]Item, len(src))
	copy(out, src)
	return out
}

// Split partitions items into lines with a catalog id and local-only lines, keeping order.
func Split(items []Item) (withProduct, localOnly []Item) {
	for _, it := range items {
		if it.HasProduct() {
			withProduct = append(withProduct, it)
		} else {
			localOnly = append(localOnly, it)
		}
	}
	return withProduct, localOnly
}

func removeIndex(items []Item, idx int) []Item {
	if idx < 0 || idx >= len(items) {
		return items
	}
	out := make([]Item, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}
