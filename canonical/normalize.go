// Package canonical validates raw extraction records into the
// provider-agnostic cart line-item schema. Rejection is per-record and
// counted, never fatal: one malformed row must not block the rows that
// did validate.
package canonical

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cart-extractor/internal/types"
)

// Field aliases accepted transparently: strategies emit the primary
// convention, but records that crossed through the backend schema use the
// product_-prefixed (and Spanish) names.
var (
	titleKeys    = []string{"title", "product_name", "name"}
	priceKeys    = []string{"price", "product_price", "unit_price"}
	quantityKeys = []string{"quantity", "cantidad", "qty"}
	imageKeys    = []string{"imageUrl", "image_url", "image", "product_image"}
	urlKeys      = []string{"url", "product_url", "sourceUrl", "source_url"}
	idKeys       = []string{"sku", "asin", "goodsId", "goods_id", "id"}
	colorKeys    = []string{"variantColor", "variant_color", "color"}
	sizeKeys     = []string{"variantSize", "variant_size", "size", "talla"}
	optionsKeys  = []string{"variantOptions", "variant_options", "options"}
)

// Placeholder art shown when a provider's cart view omits per-item images.
var placeholderImages = map[types.Provider]string{
	types.ProviderAmazon:  "https://upload.wikimedia.org/wikipedia/commons/a/a9/Amazon_logo.svg",
	types.ProviderWalmart: "https://upload.wikimedia.org/wikipedia/commons/c/ca/Walmart_logo.svg",
	types.ProviderTemu:    "https://upload.wikimedia.org/wikipedia/commons/e/e4/Temu_logo.svg",
	types.ProviderShein:   "https://upload.wikimedia.org/wikipedia/commons/5/5c/Shein_Logo_2017.svg",
	types.ProviderGeneric: "https://upload.wikimedia.org/wikipedia/commons/9/9a/Shopping_cart_icon.svg",
}

// Result is the outcome of normalizing one extraction pass.
type Result struct {
	Items         []types.CanonicalCartItem
	RejectedCount int
}

// Normalizer converts raw records into canonical cart items.
type Normalizer struct {
	logger types.Logger
}

// New creates a normalizer.
func New(logger types.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize validates every raw record, collapses duplicates on
// (ExternalID, VariantOptionsText) keeping the first-seen record, and
// counts rejections. pageURL is the source-URL fallback for records whose
// provider exposed no deep link.
func (n *Normalizer) Normalize(provider types.Provider, pageURL string, raws []types.RawRecord) Result {
	// One timestamp per pass: the synthetic identifier combines it with
	// the record's position, so synthetic IDs never collide within a pass.
	passStamp := time.Now().UnixMilli()

	result := Result{}
	byKey := make(map[string]int)

	for i, raw := range raws {
		item, ok := n.normalizeOne(provider, pageURL, raw, passStamp, i)
		if !ok {
			result.RejectedCount++
			continue
		}

		if idx, dup := byKey[item.DedupeKey()]; dup {
			// Keep the first-seen record; a duplicate carrying a live
			// quantity refreshes the kept one.
			if qty, ok := quantityOf(raw); ok {
				result.Items[idx].Quantity = qty
			}
			continue
		}

		byKey[item.DedupeKey()] = len(result.Items)
		result.Items = append(result.Items, item)
	}

	n.logger.Debugf("Normalized %d/%d records (%d rejected)", len(result.Items), len(raws), result.RejectedCount)
	return result
}

func (n *Normalizer) normalizeOne(provider types.Provider, pageURL string, raw types.RawRecord, passStamp int64, index int) (types.CanonicalCartItem, bool) {
	title := strings.TrimSpace(stringField(raw, titleKeys))
	if title == "" {
		n.logger.Debugf("Rejected record %d: empty title", index)
		return types.CanonicalCartItem{}, false
	}

	price, ok := priceField(raw)
	if !ok || !price.IsPositive() {
		n.logger.Debugf("Rejected record %d (%q): invalid price", index, title)
		return types.CanonicalCartItem{}, false
	}

	quantity := 1
	if v, present := firstPresent(raw, quantityKeys); present {
		q, ok := parseQuantityValue(v)
		if !ok {
			n.logger.Debugf("Rejected record %d (%q): invalid quantity", index, title)
			return types.CanonicalCartItem{}, false
		}
		quantity = q
	}

	item := types.CanonicalCartItem{
		ExternalID: externalID(raw, passStamp, index),
		Title:      title,
		UnitPrice:  price,
		Quantity:   quantity,
		Provider:   provider,
	}

	item.ImageURL = stringField(raw, imageKeys)
	if item.ImageURL == "" {
		item.ImageURL = placeholderImages[provider]
	}
	item.SourceURL = stringField(raw, urlKeys)
	if item.SourceURL == "" {
		item.SourceURL = pageURL
	}

	item.VariantColor = strings.TrimSpace(stringField(raw, colorKeys))
	item.VariantSize = strings.TrimSpace(stringField(raw, sizeKeys))
	item.VariantOptionsText = strings.TrimSpace(stringField(raw, optionsKeys))
	if item.VariantOptionsText == "" {
		item.VariantOptionsText = composeVariantText(item.VariantColor, item.VariantSize)
	}

	return item, true
}

// externalID prefers the provider's product identifier, then a generic id,
// then the synthetic pass-stamped form.
func externalID(raw types.RawRecord, passStamp int64, index int) string {
	if id := stringField(raw, idKeys); id != "" {
		return id
	}
	return fmt.Sprintf("item-%d-%d", passStamp, index)
}

func composeVariantText(color, size string) string {
	parts := make([]string, 0, 2)
	if color != "" {
		parts = append(parts, "Color: "+color)
	}
	if size != "" {
		parts = append(parts, "Size: "+size)
	}
	return strings.Join(parts, " | ")
}

func stringField(raw types.RawRecord, keys []string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return decimal.NewFromFloat(v).String()
		}
	}
	return ""
}

func firstPresent(raw types.RawRecord, keys []string) (interface{}, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// priceField parses the record's price under either naming convention.
// Strings are stripped of currency symbols and separators; numbers are
// taken as-is.
func priceField(raw types.RawRecord) (decimal.Decimal, bool) {
	v, present := firstPresent(raw, priceKeys)
	if !present {
		return decimal.Zero, false
	}
	switch t := v.(type) {
	case float64:
		d := decimal.NewFromFloat(t)
		return d, d.IsPositive()
	case string:
		return parsePriceString(t)
	case int:
		d := decimal.NewFromInt(int64(t))
		return d, d.IsPositive()
	default:
		return decimal.Zero, false
	}
}

func parsePriceString(s string) (decimal.Decimal, bool) {
	var cleaned strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			cleaned.WriteRune(r)
		}
	}
	if cleaned.Len() == 0 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned.String())
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// parseQuantityValue accepts integers arriving as JSON numbers or numeric
// strings; anything non-integral or non-positive fails validation.
func parseQuantityValue(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int64(t)) || t < 1 {
			return 0, false
		}
		return int(t), true
	case int:
		if t < 1 {
			return 0, false
		}
		return t, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil || !d.IsInteger() || !d.IsPositive() {
			return 0, false
		}
		return int(d.IntPart()), true
	default:
		return 0, false
	}
}

// quantityOf reads a record's quantity field without validation side
// effects, for duplicate-refresh handling.
func quantityOf(raw types.RawRecord) (int, bool) {
	v, present := firstPresent(raw, quantityKeys)
	if !present {
		return 0, false
	}
	return parseQuantityValue(v)
}
