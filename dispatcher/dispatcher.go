// Package dispatcher maps a page's URL to the extraction strategy, cart
// page predicate and canonical cart URL for its storefront family.
package dispatcher

import (
	"net/url"
	"strings"

	"cart-extractor/internal/types"
	"cart-extractor/strategies"
)

// providerEntry is one row of the fixed dispatch table. Matching is a
// substring test against the URL host, first match wins.
type providerEntry struct {
	provider  types.Provider
	hostToken string
	cartPaths []string
	cartURL   string
}

// Table order matters: it is consulted top to bottom.
var table = []providerEntry{
	{
		provider:  types.ProviderAmazon,
		hostToken: "amazon",
		cartPaths: []string{"/gp/cart", "/cart"},
		cartURL:   "https://www.amazon.com/gp/cart/view.html",
	},
	{
		provider:  types.ProviderWalmart,
		hostToken: "walmart",
		cartPaths: []string{"/cart"},
		cartURL:   "https://www.walmart.com/cart",
	},
	{
		provider:  types.ProviderTemu,
		hostToken: "temu",
		cartPaths: []string{"shopping_cart", "/cart"},
		cartURL:   "https://www.temu.com/shopping_cart.html",
	},
	{
		provider:  types.ProviderShein,
		hostToken: "shein",
		cartPaths: []string{"/cart"},
		cartURL:   "https://www.shein.com/cart",
	},
}

// Dispatcher selects extraction behavior for the current page. It has no
// error conditions: an unknown host yields the generic fallback strategy
// and "no known cart URL", both normal outcomes.
type Dispatcher struct {
	config *types.Config
	logger types.Logger
}

// New creates a dispatcher.
func New(config *types.Config, logger types.Logger) *Dispatcher {
	return &Dispatcher{config: config, logger: logger}
}

// Select returns the extraction strategy for the page at rawURL. Unknown
// hosts get the generic fallback strategy.
func (d *Dispatcher) Select(rawURL string) strategies.ExtractionStrategy {
	switch d.providerFor(rawURL) {
	case types.ProviderAmazon:
		return strategies.NewAmazonStrategy(d.config, d.logger)
	case types.ProviderWalmart:
		return strategies.NewWalmartStrategy(d.config, d.logger)
	case types.ProviderTemu:
		return strategies.NewTemuStrategy(d.config, d.logger)
	case types.ProviderShein:
		return strategies.NewSheinStrategy(d.config, d.logger)
	default:
		return strategies.NewGenericStrategy(d.config, d.logger)
	}
}

// IsCartPage reports whether rawURL is a known provider's cart page. A
// provider match is required: unknown hosts are never cart pages, even if
// their path says "cart".
func (d *Dispatcher) IsCartPage(rawURL string) bool {
	entry, ok := d.entryFor(rawURL)
	if !ok {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, p := range entry.cartPaths {
		if strings.Contains(u.Path, p) {
			return true
		}
	}
	return false
}

// CartURL returns the canonical cart URL for rawURL's provider. ok is
// false for unknown hosts; the caller then attempts extraction on the
// current page regardless.
func (d *Dispatcher) CartURL(rawURL string) (string, bool) {
	entry, ok := d.entryFor(rawURL)
	if !ok {
		return "", false
	}
	return entry.cartURL, true
}

// ProviderFor returns the storefront identifier for rawURL, or
// ProviderGeneric when no table row matches.
func (d *Dispatcher) ProviderFor(rawURL string) types.Provider {
	return d.providerFor(rawURL)
}

func (d *Dispatcher) providerFor(rawURL string) types.Provider {
	entry, ok := d.entryFor(rawURL)
	if !ok {
		return types.ProviderGeneric
	}
	return entry.provider
}

func (d *Dispatcher) entryFor(rawURL string) (providerEntry, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return providerEntry{}, false
	}
	host := strings.ToLower(u.Host)
	for _, entry := range table {
		if strings.Contains(host, entry.hostToken) {
			return entry, true
		}
	}
	return providerEntry{}, false
}
