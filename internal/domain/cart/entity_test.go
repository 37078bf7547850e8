package cart

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestAdd_MergesSameNameAndPrice(t *testing.T) {
	c := Cart{}
	ids := seqIDs()

	_, err := c.Add(NewLine{Name: "Cuaderno", Price: "65.00", Quantity: 1}, ids)
	require.NoError(t, err)
	it, err := c.Add(NewLine{Name: "Cuaderno", Price: "65.00", Quantity: 1}, ids)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, it.Quantity)
	assert.Equal(t, "id-1", it.ID)
}

func TestAdd_DifferentPriceIsNewLine(t *testing.T) {
	c := Cart{}
	ids := seqIDs()

	_, _ = c.Add(NewLine{Name: "Lápiz", Price: "5.00", Quantity: 1}, ids)
	_, _ = c.Add(NewLine{Name: "Lápiz", Price: "5.50", Quantity: 1}, ids)

	assert.Len(t, c.Items, 2)
}

func TestAdd_UpgradesLegacyLineWithProductID(t *testing.T) {
	c := Cart{Items: []Item{{ID: "a", Name: "Goma", Price: "3.00", Quantity: 1}}}

	it, err := c.Add(NewLine{Name: "Goma", Price: "3.00", Quantity: 2, ProductID: 9}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(9), it.ProductID)
	assert.Equal(t, 3, it.Quantity)
}

func TestAdd_RejectsInvalidInput(t *testing.T) {
	c := Cart{}

	_, err := c.Add(NewLine{Name: " ", Price: "1.00", Quantity: 1}, nil)
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = c.Add(NewLine{Name: "Regla", Price: "1.00", Quantity: 0}, nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	assert.Empty(t, c.Items)
}

func TestUpdateQuantity_FloorRemoves(t *testing.T) {
	c := Cart{Items: []Item{
		{ID: "a", Name: "Cuaderno", Price: "65.00", Quantity: 3},
		{ID: "b", Name: "Pluma", Price: "12.00", Quantity: 1},
	}}

	changed := c.UpdateQuantity("a", -3)

	assert.True(t, changed)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "b", c.Items[0].ID)
}

func TestSetQuantity_ClampsAndRemoves(t *testing.T) {
	c := Cart{MaxQuantity: 10, Items: []Item{{ID: "a", Name: "Clip", Price: "1.00", Quantity: 1}}}

	c.SetQuantity("a", 500)
	assert.Equal(t, 10, c.Items[0].Quantity)

	c.SetQuantity("a", 0)
	assert.Empty(t, c.Items)
}

func TestAdd_ClampsToMax(t *testing.T) {
	c := Cart{MaxQuantity: 99}
	ids := func() string { return "a" }

	_, err := c.Add(NewLine{Name: "Clip", Price: "1.00", Quantity: 99}, ids)
	require.NoError(t, err)
	it, err := c.Add(NewLine{Name: "Clip", Price: "1.00", Quantity: 50}, ids)
	require.NoError(t, err)
	assert.Equal(t, 99, it.Quantity)
	assert.Equal(t, 99, c.Items[0].Quantity)

	it, err = c.Add(NewLine{Name: "Goma", Price: "3.00", Quantity: 250}, func() string { return "b" })
	require.NoError(t, err)
	assert.Equal(t, 99, it.Quantity)
}

func TestSetQuantity_DefaultMax(t *testing.T) {
	c := Cart{Items: []Item{{ID: "a", Name: "Clip", Price: "1.00", Quantity: 1}}}

	c.SetQuantity("a", 1000)

	assert.Equal(t, DefaultMaxQuantity, c.Items[0].Quantity)
}

func TestUnknownIDIsNoop(t *testing.T) {
	c := Cart{Items: []Item{{ID: "a", Name: "Clip", Price: "1.00", Quantity: 1}}}

	assert.False(t, c.SetQuantity("zzz", 4))
	assert.False(t, c.UpdateQuantity("zzz", -1))
	assert.False(t, c.Remove("zzz"))
	assert.Len(t, c.Items, 1)
}

func TestTotalsAndCount(t *testing.T) {
	c := Cart{Items: []Item{
		{ID: "a", Name: "A", Price: "10.00", Quantity: 2},
		{ID: "b", Name: "B", Price: "5.50", Quantity: 1},
	}}

	assert.True(t, c.Total().Equal(decimal.RequireFromString("25.50")), c.Total().String())
	assert.Equal(t, 3, c.ItemCount())
}

func TestTotal_IgnoresMalformedPrice(t *testing.T) {
	c := Cart{Items: []Item{
		{ID: "a", Name: "A", Price: "10.00", Quantity: 1},
		{ID: "b", Name: "B", Price: "diez", Quantity: 4},
	}}

	assert.Equal(t, "10.00", FormatPrice(c.Total()))
	assert.Equal(t, 5, c.ItemCount())
}

func TestSplit(t *testing.T) {
	withProduct, localOnly := Split([]Item{
		{ID: "a", ProductID: 1},
		{ID: "b"},
		{ID: "c", ProductID: 3},
	})

	assert.Equal(t, []string{"a", "c"}, ids(withProduct))
	assert.Equal(t, []string{"b"}, ids(localOnly))
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
