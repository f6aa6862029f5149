package canonical

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cart-extractor/internal/types"
)

func newTestNormalizer() *Normalizer {
	return New(logrus.New())
}

func TestNormalize_ValidRecord(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize(types.ProviderAmazon, "https://www.amazon.com/gp/cart/view.html", []types.RawRecord{
		{
			"asin":     "B09XS7JWHH",
			"title":    "Sony Headphones",
			"price":    "$348.00",
			"quantity": float64(2),
			"imageUrl": "https://m.media-amazon.com/images/I/1.jpg",
			"url":      "https://www.amazon.com/dp/B09XS7JWHH",
		},
	})

	require.Len(t, result.Items, 1)
	assert.Zero(t, result.RejectedCount)

	item := result.Items[0]
	assert.Equal(t, "B09XS7JWHH", item.ExternalID)
	assert.Equal(t, "Sony Headphones", item.Title)
	assert.Equal(t, "348.00", item.UnitPrice.String())
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, types.ProviderAmazon, item.Provider)
}

func TestNormalize_BackendFieldNames(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize(types.ProviderGeneric, "https://store.example.com/cart", []types.RawRecord{
		{
			"product_name":  "Ceramic Mug",
			"product_price": 12.5,
			"cantidad":      float64(3),
			"product_image": "https://cdn.example.com/mug.jpg",
			"product_url":   "https://store.example.com/products/mug",
			"talla":         "M",
		},
	})

	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, "Ceramic Mug", item.Title)
	assert.Equal(t, "12.5", item.UnitPrice.String())
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, "M", item.VariantSize)
	assert.Equal(t, "Size: M", item.VariantOptionsText)
}

func TestNormalize_RejectsInvalidRecords(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize(types.ProviderGeneric, "https://store.example.com/cart", []types.RawRecord{
		{"title": "Valid Item", "price": "$25.00", "quantity": float64(1)},
		{"title": "Zero Price", "price": "$0"},
		{"title": "Bad Price", "price": "free"},
		{"title": "", "price": "$10.00"},
		{"price": "$10.00"},
		{"title": "Bad Quantity", "price": "$5.00", "quantity": "several"},
		{"title": "Fractional Quantity", "price": "$5.00", "quantity": 2.5},
	})

	require.Len(t, result.Items, 1)
	assert.Equal(t, "Valid Item", result.Items[0].Title)
	assert.Equal(t, 6, result.RejectedCount)
}

func TestNormalize_QuantityDefaultsWhenAbsent(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize(types.ProviderGeneric, "https://store.example.com/cart", []types.RawRecord{
		{"title": "No Quantity Control", "price": "$9.99"},
	})

	require.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.Items[0].Quantity)
}

func TestNormalize_SyntheticIDsNeverCollide(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize(types.ProviderGeneric, "https://store.example.com/cart", []types.RawRecord{
		{"title": "First No-ID Item", "price": "$1.00"},
		{"title": "Second No-ID Item", "price": "$2.00"},
		{"title": "Third No-ID Item", "price": "$3.00"},
	})

	require.Len(t, result.Items, 3)
	seen := make(map[string]bool)
	for _, item := range result.Items {
		assert.NotEmpty(t, item.ExternalID)
		assert.True(t, strings.HasPrefix(item.ExternalID, "item-"))
		assert.False(t, seen[item.ExternalID], "synthetic id collision: %s", item.ExternalID)
		seen[item.ExternalID] = true
	}
}

func TestNormalize_CollapsesDuplicates(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize(types.ProviderShein, "https://us.shein.com/cart", []types.RawRecord{
		{"sku": "sw123", "title": "Dress", "price": "$14.00", "quantity": float64(1), "variantOptions": "Color: Rust | Size: M"},
		{"sku": "sw123", "title": "Dress", "price": "$14.00", "quantity": float64(4), "variantOptions": "Color: Rust | Size: M"},
		{"sku": "sw123", "title": "Dress", "price": "$14.00", "quantity": float64(1), "variantOptions": "Color: Rust | Size: L"},
	})

	// Same (id, variant) collapses; a different variant stays separate.
	require.Len(t, result.Items, 2)
	assert.Zero(t, result.RejectedCount)

	// The duplicate's live quantity refreshes the kept first-seen record.
	assert.Equal(t, 4, result.Items[0].Quantity)
	assert.Equal(t, "Color: Rust | Size: L", result.Items[1].VariantOptionsText)
}

func TestNormalize_FallbacksForImageAndURL(t *testing.T) {
	n := newTestNormalizer()

	pageURL := "https://www.temu.com/shopping_cart.html"
	result := n.Normalize(types.ProviderTemu, pageURL, []types.RawRecord{
		{"goodsId": "42", "title": "Desk Organizer", "price": "$7.99"},
	})

	require.Len(t, result.Items, 1)
	assert.Equal(t, pageURL, result.Items[0].SourceURL)
	assert.Equal(t, placeholderImages[types.ProviderTemu], result.Items[0].ImageURL)
}
