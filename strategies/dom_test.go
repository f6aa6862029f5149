package strategies

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const removalRowHTML = `<html><body>
<div class="cart">
	<div class="row">
		<img src="https://cdn.example.com/widget.jpg" width="120" height="120"/>
		<a href="https://store.example.com/products/widget">Cordless Drill Kit</a>
		<span>Color: Blue</span>
		<span>Size: M</span>
		<span>$45.00</span>
		<input name="quantity" value="2"/>
		<button>Remove</button>
	</div>
	<div class="row">
		<img src="https://cdn.example.com/mug.jpg" width="120" height="120"/>
		<a href="https://store.example.com/products/mug">Ceramic Coffee Mug</a>
		<span>$12.50</span>
		<button aria-label="Remove">x</button>
	</div>
</div>
</body></html>`

func TestMineByRemovalControls(t *testing.T) {
	doc := mustDoc(t, removalRowHTML)

	records := mineByRemovalControls(doc, make(seenSet))
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "Cordless Drill Kit", first["title"])
	assert.Equal(t, "45.00", first["price"])
	assert.Equal(t, 2, first["quantity"])
	assert.Equal(t, "Blue", first["variantColor"])
	assert.Equal(t, "M", first["variantSize"])
	assert.Equal(t, "https://cdn.example.com/widget.jpg", first["imageUrl"])
	assert.Equal(t, "https://store.example.com/products/widget", first["url"])

	second := records[1]
	assert.Equal(t, "Ceramic Coffee Mug", second["title"])
	assert.Equal(t, "12.50", second["price"])
	assert.Equal(t, 1, second["quantity"])
}

func TestMineByRemovalControls_IgnoresRowsWithoutPriceOrImage(t *testing.T) {
	doc := mustDoc(t, `<html><body>
	<div class="row">
		<a href="/products/x">No price here</a>
		<button>Remove</button>
	</div>
	</body></html>`)

	records := mineByRemovalControls(doc, make(seenSet))
	assert.Empty(t, records)
}

func TestMineByRemovalControls_DeduplicatesByKey(t *testing.T) {
	row := `<div class="row">
		<img src="https://cdn.example.com/widget.jpg"/>
		<a href="/products/widget">Cordless Drill Kit</a>
		<span>$45.00</span>
		<button>Remove</button>
	</div>`
	doc := mustDoc(t, "<html><body>"+row+row+"</body></html>")

	records := mineByRemovalControls(doc, make(seenSet))
	assert.Len(t, records, 1)
}

func TestMineGenericFallback(t *testing.T) {
	doc := mustDoc(t, `<html><body>
	<li>
		<img src="https://cdn.example.com/a.jpg" width="200"/>
		<h3>Walnut Cutting Board</h3>
		<span>$29.99</span>
	</li>
	<li>
		<img src="https://cdn.example.com/icon.png" width="16" height="16"/>
		<h3>Icon only, not a product</h3>
		<span>$5.00</span>
	</li>
	<li>
		<img src="https://cdn.example.com/b.jpg" width="200"/>
		<span>No price in this one</span>
	</li>
	</body></html>`)

	records := mineGenericFallback(doc, make(seenSet), 40)
	require.Len(t, records, 1)
	assert.Equal(t, "Walnut Cutting Board", records[0]["title"])
	assert.Equal(t, "29.99", records[0]["price"])
}

func TestMineGenericFallback_CapsResultCount(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		sb.WriteString(fmt.Sprintf(`<li>
			<img src="https://cdn.example.com/%d.jpg" width="200"/>
			<h3>Candidate Product %d</h3>
			<span>$%d.99</span>
		</li>`, i, i, i+1))
	}
	sb.WriteString("</body></html>")
	doc := mustDoc(t, sb.String())

	records := mineGenericFallback(doc, make(seenSet), 5)
	assert.Len(t, records, 5)
}
