package strategies

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Price and quantity parsing rules applied uniformly across tiers: strip
// everything but digits and the decimal point before parsing, treat
// qualified price mentions (was/save/shipping/from and their Spanish
// equivalents) as non-authoritative, and default quantity to 1 whenever a
// control is missing or fails to parse as a positive integer under 100.

var (
	priceMentionRe = regexp.MustCompile(`(?:[$€£]|US\$|USD\s?)\s*([0-9][0-9.,]*)`)
	qualifierRe    = regexp.MustCompile(`(?i)\b(was|list|save|savings|shipping|from|antes|ahorra|ahorro|env[ií]o|desde)\b`)
	nonPriceCharRe = regexp.MustCompile(`[^0-9.]`)
)

// parsePrice parses a single price token. It strips all non-digit,
// non-decimal-point characters first, so "$1,299.00" and "USD 12.50" both
// parse. Returns false for anything non-positive or unparseable.
func parsePrice(s string) (decimal.Decimal, bool) {
	cleaned := nonPriceCharRe.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, false
	}
	// Multiple dots survive comma-stripping in strings like "1.299,00";
	// keep the last as the decimal separator.
	if strings.Count(cleaned, ".") > 1 {
		last := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// findPriceInText scans a text block for price mentions and returns the
// earliest unqualified one. A mention preceded within a few words by
// was/save/shipping/from style qualifiers is a strike-through or promo
// figure, not the price the shopper pays.
func findPriceInText(text string) (decimal.Decimal, bool) {
	matches := priceMentionRe.FindAllStringSubmatchIndex(text, -1)
	var fallback decimal.Decimal
	haveFallback := false

	for _, m := range matches {
		mention := text[m[2]:m[3]]
		price, ok := parsePrice(mention)
		if !ok {
			continue
		}
		start := m[0] - 24
		if start < 0 {
			start = 0
		}
		if qualifierRe.MatchString(text[start:m[0]]) {
			if !haveFallback {
				fallback = price
				haveFallback = true
			}
			continue
		}
		return price, true
	}

	if haveFallback {
		return fallback, true
	}
	return decimal.Zero, false
}

var qtyMentionRe = regexp.MustCompile(`(?i)^(?:qty|quantity|cantidad)\s*:?\s*([0-9]{1,3})$`)

// parseQuantity parses a quantity control value, tolerating a "Qty:"
// label prefix. Anything that is not a positive integer under 100 yields
// the default of 1.
func parseQuantity(s string) int {
	cleaned := strings.TrimSpace(s)
	if m := qtyMentionRe.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 1 || n >= 100 {
		return 1
	}
	return n
}
