// Package strategies implements the per-provider cart extraction
// strategies. Each strategy is a small state machine of extraction tiers
// tried in priority order: structured-state mining, semantic markup
// mining, DOM heuristic mining, then a generic fallback. The first tier
// producing at least one well-formed record wins.
package strategies

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cart-extractor/internal/types"
	"cart-extractor/protocol"
)

// ExtractionStrategy is the contract every provider strategy implements.
// Run executes to completion against the page context and terminates by
// posting exactly one terminal message (CART_EXTRACTED or ERROR) on out.
// It never panics across the boundary: tier and per-item failures are
// contained so one bad row cannot abort the remaining items.
type ExtractionStrategy interface {
	Provider() types.Provider
	Run(ctx context.Context, page types.PageContext, out *protocol.Messenger)
}

// tier is one extraction attempt. A tier that errors or finds nothing
// simply yields control to the next tier.
type tier struct {
	name string
	mine func(ctx context.Context, doc *goquery.Document, page types.PageContext) []types.RawRecord
}

// BaseStrategy provides the shared tier runner and extraction helpers.
// Provider strategies embed it, following the same template-method shape
// the store adapters use.
type BaseStrategy struct {
	config   *types.Config
	logger   types.Logger
	provider types.Provider
}

// NewBaseStrategy creates the shared strategy foundation.
func NewBaseStrategy(provider types.Provider, config *types.Config, logger types.Logger) *BaseStrategy {
	return &BaseStrategy{
		config:   config,
		logger:   logger,
		provider: provider,
	}
}

// Provider returns the storefront this strategy extracts from.
func (b *BaseStrategy) Provider() types.Provider {
	return b.provider
}

// runTiers attempts each tier in order and posts the terminal message.
// Only if every tier yields zero records does the strategy emit ERROR.
func (b *BaseStrategy) runTiers(ctx context.Context, page types.PageContext, out *protocol.Messenger, tiers []tier) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML()))
	if err != nil {
		out.PostError(fmt.Sprintf("failed to parse page markup: %v", err))
		return
	}

	for _, t := range tiers {
		records := b.safeMine(ctx, t, doc, page, out)
		out.PostDebug("tier %s produced %d records", t.name, len(records))
		if len(records) > 0 {
			out.PostLog("extracted %d cart items via %s", len(records), t.name)
			out.PostExtracted(records)
			return
		}
	}

	out.PostError("no cart items found on page")
}

// safeMine runs one tier with a recover wrapper so a panicking tier yields
// to the next tier instead of killing the invocation.
func (b *BaseStrategy) safeMine(ctx context.Context, t tier, doc *goquery.Document, page types.PageContext, out *protocol.Messenger) (records []types.RawRecord) {
	defer func() {
		if r := recover(); r != nil {
			out.PostDebug("tier %s failed: %v", t.name, r)
			records = nil
		}
	}()
	return t.mine(ctx, doc, page)
}

// removalTier is the shared removal-control-anchored DOM tier.
func (b *BaseStrategy) removalTier() tier {
	return tier{
		name: "removal-anchored-dom",
		mine: func(ctx context.Context, doc *goquery.Document, page types.PageContext) []types.RawRecord {
			return mineByRemovalControls(doc, make(seenSet))
		},
	}
}

// fallbackTier is the shared provider-agnostic last-resort tier.
func (b *BaseStrategy) fallbackTier() tier {
	return tier{
		name: "generic-fallback",
		mine: func(ctx context.Context, doc *goquery.Document, page types.PageContext) []types.RawRecord {
			return mineGenericFallback(doc, make(seenSet), b.config.MaxFallbackItems)
		},
	}
}

// seenSet tracks extraction keys already emitted in the current pass.
type seenSet map[string]struct{}

// add records key and reports whether it was new.
func (s seenSet) add(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

// dedupeKeyFor derives the best available identity for a raw record: the
// external identifier when the provider exposed one, otherwise a composite
// of title prefix and variant text.
func dedupeKeyFor(rec types.RawRecord) string {
	for _, key := range []string{"sku", "asin", "goodsId", "id"} {
		if v, ok := rec[key].(string); ok && v != "" {
			return v
		}
	}
	title, _ := rec["title"].(string)
	if len(title) > 40 {
		title = title[:40]
	}
	variant, _ := rec["variantOptions"].(string)
	return strings.ToLower(title) + "|" + strings.ToLower(variant)
}

// digString walks nested objects decoded from JSON and returns the string
// at the given key path, converting numbers when needed.
func digString(m map[string]interface{}, path ...string) string {
	v := dig(m, path...)
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
	default:
		return ""
	}
}

// digValue returns the raw value at the given key path, or nil.
func digValue(m map[string]interface{}, path ...string) interface{} {
	return dig(m, path...)
}

func dig(m map[string]interface{}, path ...string) interface{} {
	var cur interface{} = m
	for _, key := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur, ok = obj[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// firstNonEmpty returns the first non-empty string argument.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
