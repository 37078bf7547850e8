// internal/domain/cart/codec.go
package cart

import (
	"encoding/json"
	"strings"

	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/common"
)

// storedItem is the lenient on-disk shape of an Item.
// Older data may hold price/productId as numbers, or lack an id.
type storedItem struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Price     common.FlexString `json:"price"`
	Quantity  common.FlexInt    `json:"quantity"`
	ProductID common.FlexInt    `json:"productId"`
	Image     string            `json:"image"`
}

// DecodeItems parses a serialized partition.
// Malformed input yields an empty list; lines with quantity < 1 or no name are dropped,
// lines without an id get a fresh one.
func DecodeItems(raw []byte) []Item {
	if len(raw) == 0 {
		return []Item{}
	}

	var docs []storedItem
	if err := json.Unmarshal(raw, &docs); err != nil {
		return []Item{}
	}

	out := make([]Item, 0, len(docs))
	seen := map[string]bool{}
	for _, d := range docs {
		name := strings.TrimSpace(d.Name)
		qty := d.Quantity.Int()
		if name == "" || qty < 1 {
			continue
		}

		id := strings.TrimSpace(d.ID)
		if id == "" || seen[id] {
			id = NewItemID()
		}
		seen[id] = true

		pid := d.ProductID.Int64()
		if pid < 0 {
			pid = 0
		}

		out = append(out, Item{
			ID:        id,
			Name:      name,
			Price:     strings.TrimSpace(d.Price.String()),
			Quantity:  qty,
			ProductID: pid,
			Image:     strings.TrimSpace(d.Image),
		})
	}
	return out
}

// EncodeItems serializes a partition. A nil list encodes as [].
func EncodeItems(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}
