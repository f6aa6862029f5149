package strategies

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestEmbeddedStatePayloads_ApplicationJSON(t *testing.T) {
	doc := mustDoc(t, `<html><head>
		<script type="application/json">{"cart":{"items":[{"asin":"B01","title":"X"}]}}</script>
		<script type="application/json">not json</script>
	</head></html>`)

	payloads := embeddedStatePayloads(doc, nil)
	assert.Len(t, payloads, 1)
}

func TestEmbeddedStatePayloads_GlobalAssignment(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<script>
			window.rawData = {"store":{"cartList":[{"goods_id":"42","goods_name":"Case"}]}};
			window.other = "ignored";
		</script>
	</body></html>`)

	payloads := embeddedStatePayloads(doc, []string{"window.rawData"})
	require.Len(t, payloads, 1)

	m, ok := payloads[0].(map[string]interface{})
	require.True(t, ok)
	assert.NotNil(t, m["store"])
}

func TestAssignedJSON_BalancesBracesInsideStrings(t *testing.T) {
	script := `window.state = {"note":"has } brace and \" quote","n":1}; doMore();`
	blob, ok := assignedJSON(script, "window.state")
	require.True(t, ok)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(blob), &v))
	assert.Equal(t, float64(1), v["n"])
}

func TestAssignedJSON_MissingOrNotObject(t *testing.T) {
	_, ok := assignedJSON(`var x = 5;`, "window.state")
	assert.False(t, ok)

	_, ok = assignedJSON(`window.state = [1,2];`, "window.state")
	assert.False(t, ok)
}

func TestFindCartArray_PriorityKeysFirst(t *testing.T) {
	state := map[string]interface{}{
		"decoy": []interface{}{
			map[string]interface{}{"asin": "DECOY", "title": "wrong list"},
		},
		"cartItems": []interface{}{
			map[string]interface{}{"asin": "B001", "title": "right list"},
		},
	}
	shape := cartShape{
		baseKeys:     []string{"asin"},
		priorityKeys: []string{"cartItems"},
	}

	items := findCartArray(state, shape)
	require.Len(t, items, 1)
	assert.Equal(t, "B001", items[0]["asin"])
}

func TestFindCartArray_RejectsMixedArrays(t *testing.T) {
	state := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"asin": "B001"},
			map[string]interface{}{"unrelated": true},
		},
	}
	shape := cartShape{baseKeys: []string{"asin"}}

	assert.Nil(t, findCartArray(state, shape))
}

func TestFindCartArray_DepthBounded(t *testing.T) {
	// Bury the cart array beyond the depth limit.
	leaf := interface{}([]interface{}{
		map[string]interface{}{"asin": "B001"},
	})
	for i := 0; i < maxStateDepth+5; i++ {
		leaf = map[string]interface{}{"level": leaf}
	}
	shape := cartShape{baseKeys: []string{"asin"}}

	assert.Nil(t, findCartArray(leaf, shape))
}

func TestFindCartArray_FindsNestedWithinBound(t *testing.T) {
	var state interface{} = map[string]interface{}{
		"a": map[string]interface{}{
			"b": map[string]interface{}{
				"items": []interface{}{
					map[string]interface{}{"usItemId": "55", "name": "Lamp"},
				},
			},
		},
	}
	shape := cartShape{baseKeys: []string{"usItemId"}}

	items := findCartArray(state, shape)
	require.Len(t, items, 1)
	assert.Equal(t, "Lamp", items[0]["name"])
}
