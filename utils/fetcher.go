package utils

import (
	"context"

	"cart-extractor/internal/types"
)

// PageFetcher retrieves storefront pages as page contexts. The choice
// between the headless browser and the plain HTTP client follows the
// UseHeadlessBrowser configuration: cart pages are usually
// JavaScript-heavy, but server-rendered storefronts extract fine from a
// plain fetch, which is faster and needs no local browser.
type PageFetcher struct {
	config        *types.Config
	httpClient    *HTTPClient
	browserClient *BrowserClient
}

// NewPageFetcher creates a fetcher with both transports initialized.
func NewPageFetcher(config *types.Config, logger types.Logger) *PageFetcher {
	return &PageFetcher{
		config:        config,
		httpClient:    NewHTTPClient(config, logger),
		browserClient: NewBrowserClient(config, logger),
	}
}

// FetchPage retrieves the page at url and wraps it as a page context.
func (f *PageFetcher) FetchPage(ctx context.Context, url string) (*StaticPage, error) {
	if f.config.UseHeadlessBrowser {
		return f.browserClient.FetchPage(ctx, url)
	}

	body, err := f.httpClient.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewStaticPage(url, string(body)), nil
}

// Close cleans up resources.
func (f *PageFetcher) Close() {
	f.httpClient.Close()
}
