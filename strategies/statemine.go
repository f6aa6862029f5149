package strategies

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Structured-state mining: storefronts embed their cart state either in
// <script type="application/json"> payloads or as inline assignments to
// known global containers. The miner decodes those payloads and runs a
// bounded-depth recursive search for an array whose elements expose the
// provider's base product sub-object, trying a short list of likely
// property names before falling back to exhaustive traversal so deeply
// nested state trees stay cheap to probe.

// maxStateDepth bounds the recursive search over the decoded state tree.
const maxStateDepth = 15

// cartShape describes what a provider's cart array looks like inside its
// state tree.
type cartShape struct {
	// baseKeys are properties at least one of which every element of the
	// cart array must expose (the provider's base product info).
	baseKeys []string
	// priorityKeys are property names tried first at every object level
	// before the exhaustive walk.
	priorityKeys []string
}

// embeddedStatePayloads collects the decodable JSON state payloads on a
// page: application/json script bodies plus inline assignments to the
// named global containers.
func embeddedStatePayloads(doc *goquery.Document, globals []string) []interface{} {
	var payloads []interface{}

	doc.Find("script[type='application/json']").Each(func(i int, s *goquery.Selection) {
		var v interface{}
		if err := json.Unmarshal([]byte(s.Text()), &v); err == nil {
			payloads = append(payloads, v)
		}
	})

	if len(globals) > 0 {
		doc.Find("script").Each(func(i int, s *goquery.Selection) {
			text := s.Text()
			for _, global := range globals {
				blob, ok := assignedJSON(text, global)
				if !ok {
					continue
				}
				var v interface{}
				if err := json.Unmarshal([]byte(blob), &v); err == nil {
					payloads = append(payloads, v)
				}
			}
		})
	}

	return payloads
}

// assignedJSON extracts the object literal assigned to a global container,
// e.g. `window.rawData = {...};`. It balance-scans braces, honoring string
// literals and escapes, because the assignment is followed by arbitrary
// script text.
func assignedJSON(script, global string) (string, bool) {
	idx := strings.Index(script, global)
	if idx < 0 {
		return "", false
	}
	rest := script[idx+len(global):]
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return "", false
	}
	rest = strings.TrimSpace(rest[eq+1:])
	if len(rest) == 0 || rest[0] != '{' {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return rest[:i+1], true
			}
		}
	}
	return "", false
}

// findCartArray searches a decoded state tree for the cart array.
func findCartArray(v interface{}, shape cartShape) []map[string]interface{} {
	return searchCartArray(v, shape, 0)
}

func searchCartArray(v interface{}, shape cartShape, depth int) []map[string]interface{} {
	if depth > maxStateDepth {
		return nil
	}

	switch node := v.(type) {
	case []interface{}:
		if items := matchCartArray(node, shape); items != nil {
			return items
		}
		for _, el := range node {
			if found := searchCartArray(el, shape, depth+1); found != nil {
				return found
			}
		}
	case map[string]interface{}:
		// Likely property names first keeps the search cheap on large trees.
		for _, key := range shape.priorityKeys {
			if child, ok := node[key]; ok {
				if found := searchCartArray(child, shape, depth+1); found != nil {
					return found
				}
			}
		}
		for key, child := range node {
			if isPriorityKey(shape, key) {
				continue
			}
			if found := searchCartArray(child, shape, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}

func isPriorityKey(shape cartShape, key string) bool {
	for _, p := range shape.priorityKeys {
		if p == key {
			return true
		}
	}
	return false
}

// matchCartArray reports whether node is a recognizable cart array: a
// non-empty array of objects where every element exposes at least one of
// the shape's base product keys.
func matchCartArray(node []interface{}, shape cartShape) []map[string]interface{} {
	if len(node) == 0 {
		return nil
	}
	items := make([]map[string]interface{}, 0, len(node))
	for _, el := range node {
		obj, ok := el.(map[string]interface{})
		if !ok {
			return nil
		}
		if !hasAnyKey(obj, shape.baseKeys) {
			return nil
		}
		items = append(items, obj)
	}
	return items
}

func hasAnyKey(obj map[string]interface{}, keys []string) bool {
	for _, key := range keys {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}
