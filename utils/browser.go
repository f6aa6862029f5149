package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"cart-extractor/internal/types"
)

// BrowserClient renders storefront pages in a headless browser. The
// captured markup becomes the isolated page context the extraction
// strategies run against; storefront cart pages are JavaScript-heavy, so a
// plain HTTP fetch rarely sees the real cart rows.
type BrowserClient struct {
	config *types.Config
	logger types.Logger
}

// NewBrowserClient creates a new browser client.
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	return &BrowserClient{
		config: config,
		logger: logger,
	}
}

// FetchPage navigates to url, lets dynamic content settle, and returns the
// rendered page as a StaticPage context for strategy execution.
func (b *BrowserClient) FetchPage(ctx context.Context, url string) (*StaticPage, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.config.Timeout)
	defer cancel()

	var html string

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(500*time.Millisecond), // let cart rows hydrate
		chromedp.OuterHTML("html", &html),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	b.logger.Debugf("Successfully retrieved page content from %s (%d bytes)", url, len(html))
	return NewStaticPage(url, html), nil
}

// EvaluateScript navigates to url, executes script on the page and
// returns its string result.
func (b *BrowserClient) EvaluateScript(ctx context.Context, url string, script string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.config.Timeout)
	defer cancel()

	var result string

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Evaluate(script, &result),
	)

	if err != nil {
		return "", fmt.Errorf("failed to execute JavaScript: %w", err)
	}

	return result, nil
}
