package strategies

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cart-extractor/internal/types"
)

// DOM heuristic mining: when neither state payloads nor semantic markup
// yield cart rows, the rendered DOM is all that's left. Rows are located
// via provider marker selectors or, failing that, by anchoring on
// "Remove"-style controls and walking upward until a plausible row
// container is found.

var (
	removeLabelRe = regexp.MustCompile(`(?i)^\s*(remove|delete|eliminar|quitar|borrar)\s*$`)
	priceLikeRe   = regexp.MustCompile(`[$€£]\s*[0-9][0-9.,]*`)
	colorLabelRe  = regexp.MustCompile(`(?i)\b(?:color|colour)\s*:\s*([^\n|,;]+)`)
	sizeLabelRe   = regexp.MustCompile(`(?i)\b(?:size|talla)\s*:\s*([^\n|,;]+)`)
	qtyLabelRe    = regexp.MustCompile(`(?i)\b(?:qty|quantity|cantidad)\s*:?\s*([0-9]{1,3})`)
)

// maxAncestorHops bounds the upward walk from a removal control.
const maxAncestorHops = 8

// mineByRemovalControls finds cart rows by anchoring on removal controls:
// for each control, walk ancestors until a container holds exactly one
// such control plus a price-like substring and an image, then extract the
// row's fields from its text content.
func mineByRemovalControls(doc *goquery.Document, seen seenSet) []types.RawRecord {
	var records []types.RawRecord

	doc.Find("button, a, input[type='button'], input[type='submit'], span[role='button']").Each(func(i int, s *goquery.Selection) {
		if !isRemovalControl(s) {
			return
		}

		container := rowContainerFor(s)
		if container == nil {
			return
		}

		rec, ok := recordFromContainer(container)
		if !ok {
			return
		}
		if seen.add(dedupeKeyFor(rec)) {
			records = append(records, rec)
		}
	})

	return records
}

func isRemovalControl(s *goquery.Selection) bool {
	if removeLabelRe.MatchString(s.Text()) {
		return true
	}
	if label, ok := s.Attr("aria-label"); ok && removeLabelRe.MatchString(label) {
		return true
	}
	if value, ok := s.Attr("value"); ok && removeLabelRe.MatchString(value) {
		return true
	}
	return false
}

// rowContainerFor walks upward from a removal control until it finds an
// ancestor that contains exactly one removal control, a price-like
// substring and an image. More than one removal control means the walk
// overshot into a multi-row wrapper.
func rowContainerFor(control *goquery.Selection) *goquery.Selection {
	node := control.Parent()
	for hop := 0; hop < maxAncestorHops && node.Length() > 0; hop++ {
		removals := 0
		node.Find("button, a, input[type='button'], input[type='submit'], span[role='button']").Each(func(i int, s *goquery.Selection) {
			if isRemovalControl(s) {
				removals++
			}
		})
		if removals > 1 {
			return nil
		}
		if removals == 1 && priceLikeRe.MatchString(node.Text()) && node.Find("img").Length() > 0 {
			return node
		}
		node = node.Parent()
	}
	return nil
}

// recordFromContainer extracts a raw record from one row container using
// text heuristics.
func recordFromContainer(container *goquery.Selection) (types.RawRecord, bool) {
	text := container.Text()

	title := rowTitle(container)
	price, priceOK := findPriceInText(text)
	if title == "" || !priceOK {
		return nil, false
	}

	rec := types.RawRecord{
		"title":    title,
		"price":    price.String(),
		"quantity": rowQuantity(container, text),
	}

	if img := container.Find("img").First(); img.Length() > 0 {
		if src := imageSource(img); src != "" {
			rec["imageUrl"] = src
		}
	}
	if href, ok := container.Find("a[href]").First().Attr("href"); ok && href != "" {
		rec["url"] = href
	}
	if m := colorLabelRe.FindStringSubmatch(text); m != nil {
		rec["variantColor"] = strings.TrimSpace(m[1])
	}
	if m := sizeLabelRe.FindStringSubmatch(text); m != nil {
		rec["variantSize"] = strings.TrimSpace(m[1])
	}

	return rec, true
}

// rowTitle prefers heading and link text over raw text lines.
func rowTitle(container *goquery.Selection) string {
	selectors := []string{"h1", "h2", "h3", "h4", "a[href*='/product']", "a[href*='/dp/']", "a[href*='/ip/']", "a[href]"}
	for _, sel := range selectors {
		text := strings.TrimSpace(container.Find(sel).First().Text())
		if len(text) > 3 && !removeLabelRe.MatchString(text) {
			return collapseWhitespace(text)
		}
	}
	// Longest text line as a last resort.
	best := ""
	for _, line := range strings.Split(container.Text(), "\n") {
		line = strings.TrimSpace(line)
		if len(line) > len(best) && !priceLikeRe.MatchString(line) {
			best = line
		}
	}
	if len(best) > 3 {
		return collapseWhitespace(best)
	}
	return ""
}

// rowQuantity reads the row's quantity control, falling back to a
// "Qty: N" text mention, then to 1.
func rowQuantity(container *goquery.Selection, text string) int {
	if value, ok := container.Find("input[name*='quantity'], input[name*='Quantity'], input[class*='quantity']").First().Attr("value"); ok {
		return parseQuantity(value)
	}
	if value := strings.TrimSpace(container.Find("select option[selected]").First().Text()); value != "" {
		return parseQuantity(value)
	}
	if m := qtyLabelRe.FindStringSubmatch(text); m != nil {
		return parseQuantity(m[1])
	}
	return 1
}

func imageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if src, ok := img.Attr(attr); ok && src != "" && !strings.HasPrefix(src, "data:") {
			return src
		}
	}
	return ""
}

// minFallbackImagePx excludes icons and spacers from fallback mining.
const minFallbackImagePx = 50

// mineGenericFallback is the provider-agnostic last tier: candidate
// elements qualifying as cart rows by the co-occurrence of a real image, a
// currency-prefixed price and a title-like element. Results are capped to
// avoid false-positive floods on listing-style pages.
func mineGenericFallback(doc *goquery.Document, seen seenSet, maxItems int) []types.RawRecord {
	var records []types.RawRecord

	doc.Find("li, article, div[class*='item'], div[class*='cart'], div[class*='product'], tr").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(records) >= maxItems {
			return false
		}

		img := s.Find("img").First()
		if img.Length() == 0 || !imageBigEnough(img) {
			return true
		}
		text := s.Text()
		if !priceLikeRe.MatchString(text) {
			return true
		}
		// Skip wrappers that contain several priced images; those are
		// grids, not rows.
		if s.Find("img").Length() > 3 {
			return true
		}

		rec, ok := recordFromContainer(s)
		if !ok {
			return true
		}
		if seen.add(dedupeKeyFor(rec)) {
			records = append(records, rec)
		}
		return true
	})

	return records
}

func imageBigEnough(img *goquery.Selection) bool {
	width := dimensionAttr(img, "width")
	height := dimensionAttr(img, "height")
	// Unstated dimensions pass; stated tiny ones are icons.
	if width > 0 && width < minFallbackImagePx {
		return false
	}
	if height > 0 && height < minFallbackImagePx {
		return false
	}
	return true
}

func dimensionAttr(s *goquery.Selection, name string) int {
	raw, ok := s.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(raw), "px"))
	if err != nil {
		return 0
	}
	return n
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
