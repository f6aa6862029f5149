package strategies

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"cart-extractor/internal/types"
	"cart-extractor/protocol"
)

// TemuStrategy extracts cart items from temu.com cart pages. Temu inlines
// its entire store state as a `window.rawData` assignment; the goods list
// inside it is the primary source. Some price fields arrive as integer
// cents and are rescaled during mapping.
type TemuStrategy struct {
	*BaseStrategy
}

// NewTemuStrategy creates a new Temu strategy.
func NewTemuStrategy(config *types.Config, logger types.Logger) *TemuStrategy {
	return &TemuStrategy{
		BaseStrategy: NewBaseStrategy(types.ProviderTemu, config, logger),
	}
}

// Run executes the extraction tiers and posts the terminal message.
func (t *TemuStrategy) Run(ctx context.Context, page types.PageContext, out *protocol.Messenger) {
	t.runTiers(ctx, page, out, []tier{
		{name: "structured-state", mine: t.mineState},
		t.removalTier(),
		t.fallbackTier(),
	})
}

func (t *TemuStrategy) mineState(ctx context.Context, doc *goquery.Document, page types.PageContext) []types.RawRecord {
	shape := cartShape{
		baseKeys:     []string{"goodsId", "goods_id", "baseGoods"},
		priorityKeys: []string{"store", "cartList", "cart_list", "goodsList", "goods_list", "cartGoodsList", "items"},
	}

	payloads := embeddedStatePayloads(doc, []string{"window.rawData", "rawData"})

	seen := make(seenSet)
	var records []types.RawRecord
	for _, payload := range payloads {
		for _, item := range findCartArray(payload, shape) {
			rec := t.recordFromStateItem(item)
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

func (t *TemuStrategy) recordFromStateItem(item map[string]interface{}) types.RawRecord {
	// Some revisions nest the base product info one level down.
	if base, ok := item["baseGoods"].(map[string]interface{}); ok {
		merged := make(map[string]interface{}, len(item)+len(base))
		for k, v := range item {
			merged[k] = v
		}
		for k, v := range base {
			merged[k] = v
		}
		item = merged
	}

	id := firstNonEmpty(digString(item, "goodsId"), digString(item, "goods_id"))
	title := firstNonEmpty(digString(item, "goodsName"), digString(item, "goods_name"), digString(item, "title"))
	if id == "" || title == "" {
		return nil
	}

	rec := types.RawRecord{
		"goodsId": id,
		"title":   title,
	}

	if price := t.statePrice(item); price != nil {
		rec["price"] = price
	}
	if qty := firstNonNil(digValue(item, "quantity"), digValue(item, "goodsNumber"), digValue(item, "goods_number")); qty != nil {
		rec["quantity"] = qty
	}
	if img := firstNonEmpty(
		digString(item, "thumbUrl"),
		digString(item, "thumb_url"),
		digString(item, "goodsImage"),
		digString(item, "image"),
	); img != "" {
		rec["imageUrl"] = img
	}
	if link := firstNonEmpty(digString(item, "linkUrl"), digString(item, "link_url")); link != "" {
		rec["url"] = link
	}
	if spec := firstNonEmpty(digString(item, "specInfo"), digString(item, "spec_info"), digString(item, "skuSpec")); spec != "" {
		rec["variantOptions"] = spec
	}
	return rec
}

// statePrice prefers display price strings; amount-suffixed numeric fields
// carry integer cents and are rescaled.
func (t *TemuStrategy) statePrice(item map[string]interface{}) interface{} {
	if s := firstNonEmpty(
		digString(item, "priceStr"),
		digString(item, "price_str"),
		digString(item, "priceInfo", "priceStr"),
		digString(item, "salePriceStr"),
	); s != "" {
		return s
	}
	for _, path := range [][]string{
		{"priceAmount"},
		{"price_amount"},
		{"priceInfo", "priceAmount"},
	} {
		if v, ok := digValue(item, path...).(float64); ok && v > 0 {
			return v / 100
		}
	}
	if v := digValue(item, "price"); v != nil {
		return v
	}
	return nil
}

func firstNonNil(values ...interface{}) interface{} {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
