package strategies

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cart-extractor/internal/types"
	"cart-extractor/protocol"
)

// SheinStrategy extracts cart items from shein.com cart pages. The cart
// lives in the `gbRawData` global; the cart DOM lacks product identifiers,
// so DOM-mined rows are cross-referenced against JSON-LD Product markup to
// recover SKUs and variant attributes.
type SheinStrategy struct {
	*BaseStrategy
}

// NewSheinStrategy creates a new Shein strategy.
func NewSheinStrategy(config *types.Config, logger types.Logger) *SheinStrategy {
	return &SheinStrategy{
		BaseStrategy: NewBaseStrategy(types.ProviderShein, config, logger),
	}
}

// Run executes the extraction tiers and posts the terminal message.
func (s *SheinStrategy) Run(ctx context.Context, page types.PageContext, out *protocol.Messenger) {
	s.runTiers(ctx, page, out, []tier{
		{name: "structured-state", mine: s.mineState},
		{name: "markup-crossref-dom", mine: s.mineCrossRefDOM},
		s.fallbackTier(),
	})
}

func (s *SheinStrategy) mineState(ctx context.Context, doc *goquery.Document, page types.PageContext) []types.RawRecord {
	shape := cartShape{
		baseKeys:     []string{"goods_sn", "goodsSn", "goods_id", "product"},
		priorityKeys: []string{"cartInfo", "cart_info", "carts", "cartList", "cart_list", "goods", "item_list", "items"},
	}

	payloads := embeddedStatePayloads(doc, []string{"gbRawData"})

	seen := make(seenSet)
	var records []types.RawRecord
	for _, payload := range payloads {
		for _, item := range findCartArray(payload, shape) {
			rec := s.recordFromStateItem(item)
			if rec == nil {
				continue
			}
			if seen.add(dedupeKeyFor(rec)) {
				records = append(records, rec)
			}
		}
		if len(records) > 0 {
			break
		}
	}
	return records
}

func (s *SheinStrategy) recordFromStateItem(item map[string]interface{}) types.RawRecord {
	// The row either is the product object or wraps it under "product".
	if product, ok := item["product"].(map[string]interface{}); ok {
		merged := make(map[string]interface{}, len(item)+len(product))
		for k, v := range item {
			merged[k] = v
		}
		for k, v := range product {
			merged[k] = v
		}
		item = merged
	}

	sku := firstNonEmpty(digString(item, "goods_sn"), digString(item, "goodsSn"), digString(item, "goods_id"))
	title := firstNonEmpty(digString(item, "goods_name"), digString(item, "goodsName"), digString(item, "title"))
	if sku == "" || title == "" {
		return nil
	}

	rec := types.RawRecord{
		"sku":   sku,
		"title": title,
	}

	for _, path := range [][]string{
		{"unit_price_info", "amount"},
		{"unitPrice", "amount"},
		{"salePrice", "amount"},
		{"sale_price", "amount"},
		{"price"},
	} {
		if v := digValue(item, path...); v != nil {
			rec["price"] = v
			break
		}
	}
	if qty := digValue(item, "quantity"); qty != nil {
		rec["quantity"] = qty
	}
	if img := firstNonEmpty(digString(item, "goods_img"), digString(item, "goodsImg"), digString(item, "image")); img != "" {
		rec["imageUrl"] = img
	}
	if color := firstNonEmpty(digString(item, "color"), digString(item, "goods_color")); color != "" {
		rec["variantColor"] = color
	}
	if size := firstNonEmpty(digString(item, "size"), digString(item, "goods_size"), digString(item, "attr_value_en")); size != "" {
		rec["variantSize"] = size
	}
	return rec
}

// mineCrossRefDOM anchors on removal controls like the shared tier but
// enriches each row from the page's JSON-LD Product markup: when a row's
// link or image references a known SKU, the markup supplies the identifier
// and variant attributes the cart DOM omits.
func (s *SheinStrategy) mineCrossRefDOM(ctx context.Context, doc *goquery.Document, page types.PageContext) []types.RawRecord {
	records := mineByRemovalControls(doc, make(seenSet))
	if len(records) == 0 {
		return nil
	}

	index := markupBySKU(mineJSONLD(doc))
	if len(index) == 0 {
		return records
	}

	for _, rec := range records {
		url, _ := rec["url"].(string)
		img, _ := rec["imageUrl"].(string)
		for sku, markup := range index {
			if !strings.Contains(url, sku) && !strings.Contains(img, sku) {
				continue
			}
			rec["sku"] = sku
			if _, ok := rec["variantColor"]; !ok && markup.Color != "" {
				rec["variantColor"] = markup.Color
			}
			if _, ok := rec["variantSize"]; !ok && markup.Size != "" {
				rec["variantSize"] = markup.Size
			}
			if _, ok := rec["imageUrl"]; !ok && markup.Image != "" {
				rec["imageUrl"] = markup.Image
			}
			break
		}
	}
	return records
}
