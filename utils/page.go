package utils

// StaticPage is a PageContext over already-captured markup. The live
// browser fetcher produces one per navigation; tests construct them
// directly from fixture HTML.
type StaticPage struct {
	url  string
	html string
}

// NewStaticPage wraps a URL and its rendered markup as a page context.
func NewStaticPage(url, html string) *StaticPage {
	return &StaticPage{url: url, html: html}
}

// URL returns the address of the rendered page.
func (p *StaticPage) URL() string { return p.url }

// HTML returns the full rendered markup of the page.
func (p *StaticPage) HTML() string { return p.html }
