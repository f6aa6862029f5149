package strategies

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
)

// Semantic markup mining: schema.org JSON-LD Product blocks. On cart pages
// these rarely carry per-row quantity, so the mined data serves mainly as
// a cross-reference for identifiers and variant attributes keyed by SKU.

// productMarkup is one Product (or hasVariant member) lifted from JSON-LD.
type productMarkup struct {
	SKU   string
	Name  string
	Image string
	Price string
	Color string
	Size  string
}

// mineJSONLD collects all Product entries from the page's ld+json scripts,
// flattening @graph containers and hasVariant lists.
func mineJSONLD(doc *goquery.Document) []productMarkup {
	var products []productMarkup

	doc.Find("script[type='application/ld+json']").Each(func(i int, s *goquery.Selection) {
		var v interface{}
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}
		collectProducts(v, &products)
	})

	return products
}

func collectProducts(v interface{}, out *[]productMarkup) {
	switch node := v.(type) {
	case []interface{}:
		for _, el := range node {
			collectProducts(el, out)
		}
	case map[string]interface{}:
		if graph, ok := node["@graph"]; ok {
			collectProducts(graph, out)
		}
		if typ, _ := node["@type"].(string); typ == "Product" || typ == "ProductGroup" {
			if p, ok := productFromNode(node); ok {
				*out = append(*out, p)
			}
			if variants, ok := node["hasVariant"]; ok {
				collectProducts(variants, out)
			}
		}
	}
}

func productFromNode(node map[string]interface{}) (productMarkup, bool) {
	p := productMarkup{
		SKU:   digString(node, "sku"),
		Name:  digString(node, "name"),
		Color: digString(node, "color"),
		Size:  digString(node, "size"),
	}

	switch img := node["image"].(type) {
	case string:
		p.Image = img
	case []interface{}:
		if len(img) > 0 {
			p.Image, _ = img[0].(string)
		}
	}

	// offers is either one Offer or a list.
	switch offers := node["offers"].(type) {
	case map[string]interface{}:
		p.Price = digString(offers, "price")
	case []interface{}:
		if len(offers) > 0 {
			if offer, ok := offers[0].(map[string]interface{}); ok {
				p.Price = digString(offer, "price")
			}
		}
	}

	if p.Name == "" && p.SKU == "" {
		return productMarkup{}, false
	}
	return p, true
}

// markupBySKU indexes mined products for identifier cross-referencing.
func markupBySKU(products []productMarkup) map[string]productMarkup {
	index := make(map[string]productMarkup, len(products))
	for _, p := range products {
		if p.SKU != "" {
			if _, ok := index[p.SKU]; !ok {
				index[p.SKU] = p
			}
		}
	}
	return index
}
