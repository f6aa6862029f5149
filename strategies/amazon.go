package strategies

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cart-extractor/internal/types"
	"cart-extractor/protocol"
)

// AmazonStrategy extracts cart items from amazon.com cart pages. The cart
// DOM is stable enough that marker-class mining usually wins; state mining
// covers the embedded cart payload some revisions ship.
type AmazonStrategy struct {
	*BaseStrategy
}

// NewAmazonStrategy creates a new Amazon strategy.
func NewAmazonStrategy(config *types.Config, logger types.Logger) *AmazonStrategy {
	return &AmazonStrategy{
		BaseStrategy: NewBaseStrategy(types.ProviderAmazon, config, logger),
	}
}

// Run executes the extraction tiers and posts the terminal message.
func (a *AmazonStrategy) Run(ctx context.Context, page types.PageContext, out *protocol.Messenger) {
	a.runTiers(ctx, page, out, []tier{
		{name: "structured-state", mine: a.mineState},
		{name: "cart-dom", mine: a.mineCartDOM},
		a.removalTier(),
		a.fallbackTier(),
	})
}

func (a *AmazonStrategy) mineState(ctx context.Context, doc *goquery.Document, page types.PageContext) []types.RawRecord {
	shape := cartShape{
		baseKeys:     []string{"asin", "ASIN"},
		priorityKeys: []string{"activeItems", "cartItems", "items", "lineItems", "cart"},
	}

	seen := make(seenSet)
	var records []types.RawRecord
	for _, payload := range embeddedStatePayloads(doc, nil) {
		for _, item := range findCartArray(payload, shape) {
			rec := a.recordFromStateItem(item)
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

func (a *AmazonStrategy) recordFromStateItem(item map[string]interface{}) types.RawRecord {
	asin := firstNonEmpty(digString(item, "asin"), digString(item, "ASIN"))
	title := firstNonEmpty(digString(item, "title"), digString(item, "productTitle"))
	if asin == "" || title == "" {
		return nil
	}

	rec := types.RawRecord{
		"asin":  asin,
		"title": title,
		"url":   "https://www.amazon.com/dp/" + asin,
	}
	if price := firstNonEmpty(digString(item, "priceString"), digString(item, "price"), digString(item, "priceAmount")); price != "" {
		rec["price"] = price
	}
	if qty := digValue(item, "quantity"); qty != nil {
		rec["quantity"] = qty
	}
	if img := firstNonEmpty(digString(item, "imageUrl"), digString(item, "image")); img != "" {
		rec["imageUrl"] = img
	}
	return rec
}

// mineCartDOM reads the active-cart list items Amazon renders with
// sc-prefixed marker classes and data-asin row attributes.
func (a *AmazonStrategy) mineCartDOM(ctx context.Context, doc *goquery.Document, page types.PageContext) []types.RawRecord {
	seen := make(seenSet)
	var records []types.RawRecord

	doc.Find("#sc-active-cart div[data-asin], div.sc-list-item[data-asin], div[data-asin][data-itemtype]").Each(func(i int, s *goquery.Selection) {
		asin, _ := s.Attr("data-asin")
		if asin == "" {
			return
		}

		title := firstNonEmpty(
			strings.TrimSpace(s.Find(".sc-product-title, .a-truncate-full").First().Text()),
			s.Find("img.sc-product-image").AttrOr("alt", ""),
		)
		if title == "" {
			return
		}

		rec := types.RawRecord{
			"asin":  asin,
			"title": collapseWhitespace(title),
			"url":   "https://www.amazon.com/dp/" + asin,
		}

		priceText := firstNonEmpty(
			s.Find(".sc-product-price").First().Text(),
			s.Find(".a-price .a-offscreen").First().Text(),
		)
		if priceText == "" {
			priceText = s.Text()
		}
		if price, ok := findPriceInText(priceText); ok {
			rec["price"] = price.String()
		}

		rec["quantity"] = a.rowQuantity(s)

		if img := s.Find("img.sc-product-image").First(); img.Length() > 0 {
			if src := imageSource(img); src != "" {
				rec["imageUrl"] = src
			}
		}
		if variation := strings.TrimSpace(s.Find(".sc-product-variation").Text()); variation != "" {
			rec["variantOptions"] = collapseWhitespace(variation)
		}

		if seen.add(dedupeKeyFor(rec)) {
			records = append(records, rec)
		}
	})

	return records
}

// rowQuantity reads Amazon's quantity widgets: the numeric stepper input,
// the dropdown prompt, or the textual quantity badge.
func (a *AmazonStrategy) rowQuantity(s *goquery.Selection) int {
	if value, ok := s.Find("input[name='quantityBox']").First().Attr("value"); ok {
		return parseQuantity(value)
	}
	if text := strings.TrimSpace(s.Find(".a-dropdown-prompt").First().Text()); text != "" {
		return parseQuantity(text)
	}
	if value, ok := s.Find("span[data-a-selector='value']").First().Attr("data-value"); ok {
		return parseQuantity(value)
	}
	return 1
}
