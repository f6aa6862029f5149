package strategies

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cart-extractor/internal/types"
	"cart-extractor/protocol"
)

// WalmartStrategy extracts cart items from walmart.com cart pages. Walmart
// ships its cart state in the __NEXT_DATA__ payload, so structured-state
// mining is the primary tier; the rendered DOM carries data-testid markers
// when the payload shape drifts.
type WalmartStrategy struct {
	*BaseStrategy
}

// NewWalmartStrategy creates a new Walmart strategy.
func NewWalmartStrategy(config *types.Config, logger types.Logger) *WalmartStrategy {
	return &WalmartStrategy{
		BaseStrategy: NewBaseStrategy(types.ProviderWalmart, config, logger),
	}
}

// Run executes the extraction tiers and posts the terminal message.
func (w *WalmartStrategy) Run(ctx context.Context, page types.PageContext, out *protocol.Messenger) {
	w.runTiers(ctx, page, out, []tier{
		{name: "structured-state", mine: w.mineState},
		{name: "cart-dom", mine: w.mineCartDOM},
		w.removalTier(),
		w.fallbackTier(),
	})
}

func (w *WalmartStrategy) mineState(ctx context.Context, doc *goquery.Document, page types.PageContext) []types.RawRecord {
	shape := cartShape{
		baseKeys:     []string{"usItemId", "USItemId", "offerId"},
		priorityKeys: []string{"props", "pageProps", "initialData", "data", "cart", "cartItems", "items", "lineItems"},
	}

	payloads := embeddedStatePayloads(doc, []string{"__WML_REDUX_INITIAL_STATE__"})

	seen := make(seenSet)
	var records []types.RawRecord
	for _, payload := range payloads {
		for _, item := range findCartArray(payload, shape) {
			rec := w.recordFromStateItem(item)
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

func (w *WalmartStrategy) recordFromStateItem(item map[string]interface{}) types.RawRecord {
	id := firstNonEmpty(digString(item, "usItemId"), digString(item, "USItemId"), digString(item, "offerId"))
	title := firstNonEmpty(digString(item, "name"), digString(item, "title"), digString(item, "product", "name"))
	if id == "" || title == "" {
		return nil
	}

	rec := types.RawRecord{
		"sku":   id,
		"title": title,
		"url":   "https://www.walmart.com/ip/" + id,
	}
	if price := w.statePrice(item); price != nil {
		rec["price"] = price
	}
	if qty := digValue(item, "quantity"); qty != nil {
		rec["quantity"] = qty
	}
	if img := firstNonEmpty(
		digString(item, "imageInfo", "thumbnailUrl"),
		digString(item, "image"),
		digString(item, "imageUrl"),
	); img != "" {
		rec["imageUrl"] = img
	}
	if color := digString(item, "variantColor"); color != "" {
		rec["variantColor"] = color
	}
	return rec
}

func (w *WalmartStrategy) statePrice(item map[string]interface{}) interface{} {
	for _, path := range [][]string{
		{"priceInfo", "itemPrice", "price"},
		{"priceInfo", "linePrice", "price"},
		{"price"},
		{"unitPrice"},
	} {
		if v := digValue(item, path...); v != nil {
			return v
		}
	}
	return nil
}

// mineCartDOM reads Walmart's data-testid cart rows.
func (w *WalmartStrategy) mineCartDOM(ctx context.Context, doc *goquery.Document, page types.PageContext) []types.RawRecord {
	seen := make(seenSet)
	var records []types.RawRecord

	doc.Find("div[data-testid='cart-item'], div[data-testid*='cartItem']").Each(func(i int, s *goquery.Selection) {
		title := collapseWhitespace(firstNonEmpty(
			s.Find("span[data-testid='productName']").First().Text(),
			s.Find("a[href*='/ip/'] span").First().Text(),
			s.Find("a[href*='/ip/']").First().Text(),
		))
		if title == "" {
			return
		}

		rec := types.RawRecord{"title": title}

		if href, ok := s.Find("a[href*='/ip/']").First().Attr("href"); ok {
			rec["url"] = href
			// /ip/<slug>/<usItemId>
			parts := strings.Split(strings.TrimRight(href, "/"), "/")
			if len(parts) > 0 {
				if id := parts[len(parts)-1]; isDigits(id) {
					rec["sku"] = id
				}
			}
		}
		if price, ok := findPriceInText(s.Text()); ok {
			rec["price"] = price.String()
		}
		rec["quantity"] = rowQuantity(s, s.Text())
		if img := s.Find("img").First(); img.Length() > 0 {
			if src := imageSource(img); src != "" {
				rec["imageUrl"] = src
			}
		}

		if seen.add(dedupeKeyFor(rec)) {
			records = append(records, rec)
		}
	})

	return records
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
