package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"$25.99", "25.99", true},
		{"USD 12.50", "12.50", true},
		{"$1,299.00", "1299.00", true},
		{"€49", "49", true},
		{"$0", "", false},
		{"$0.00", "", false},
		{"free", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		price, ok := parsePrice(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.want, price.String(), "input %q", tt.input)
		}
	}
}

func TestFindPriceInText_PrefersUnqualifiedMention(t *testing.T) {
	price, ok := findPriceInText("Was $39.99 Now only $25.99 plus $4.99 shipping")
	require.True(t, ok)
	assert.Equal(t, "25.99", price.String())
}

func TestFindPriceInText_QualifiedOnlyFallsBack(t *testing.T) {
	price, ok := findPriceInText("Save $10.00 today")
	require.True(t, ok)
	assert.Equal(t, "10.00", price.String())
}

func TestFindPriceInText_NoMention(t *testing.T) {
	_, ok := findPriceInText("Quantity: 2 Color: Blue")
	assert.False(t, ok)
}

func TestParseQuantity_Defaults(t *testing.T) {
	assert.Equal(t, 2, parseQuantity("2"))
	assert.Equal(t, 99, parseQuantity("99"))
	assert.Equal(t, 3, parseQuantity("Qty: 3"))

	// Anything outside a positive integer under 100 defaults to 1.
	assert.Equal(t, 1, parseQuantity(""))
	assert.Equal(t, 1, parseQuantity("0"))
	assert.Equal(t, 1, parseQuantity("100"))
	assert.Equal(t, 1, parseQuantity("-4"))
	assert.Equal(t, 1, parseQuantity("lots"))
}
