// Package estimator infers coarse physical attributes for shipping logic.
// The estimates are deliberately heuristic: a keyword table keyed off the
// title, with fixed defaults for everything else. Estimation is
// independent of classification.
package estimator

import (
	"strings"

	"cart-extractor/internal/types"
)

// entry maps title keywords to typical packed weight and volume.
type entry struct {
	keywords []string
	weightKg float64
	volumeM3 float64
}

// Table order matters: the first keyword found as a substring of the
// lower-cased title wins.
var table = []entry{
	{[]string{"laptop", "notebook", "portatil"}, 2.5, 0.008},
	{[]string{"tv", "television", "televisor", "monitor"}, 12.0, 0.15},
	{[]string{"phone", "celular", "telefono", "smartphone"}, 0.3, 0.0005},
	{[]string{"tablet", "ipad"}, 0.6, 0.002},
	{[]string{"shoe", "zapatos", "sneaker", "tenis", "boot"}, 1.0, 0.008},
	{[]string{"shirt", "camisa", "blusa", "t-shirt", "playera"}, 0.25, 0.002},
	{[]string{"pants", "pantalon", "jeans"}, 0.5, 0.003},
	{[]string{"dress", "vestido"}, 0.4, 0.003},
	{[]string{"jacket", "chamarra", "abrigo", "coat"}, 0.9, 0.006},
	{[]string{"book", "libro"}, 0.5, 0.002},
	{[]string{"toy", "juguete"}, 0.7, 0.01},
	{[]string{"watch", "reloj"}, 0.2, 0.0003},
	{[]string{"headphone", "audifonos", "earbuds"}, 0.3, 0.001},
	{[]string{"perfume", "cologne"}, 0.4, 0.0008},
	{[]string{"blender", "licuadora", "mixer"}, 3.0, 0.02},
}

// Defaults for titles matching no table entry.
const (
	defaultWeightKg = 1.0
	defaultVolumeM3 = 0.01
)

// Estimator annotates items with weight and volume estimates.
type Estimator struct {
	logger types.Logger
}

// New creates an estimator.
func New(logger types.Logger) *Estimator {
	return &Estimator{logger: logger}
}

// Estimate returns the item annotated with estimated weight and volume.
func (e *Estimator) Estimate(item types.CanonicalCartItem) types.CanonicalCartItem {
	title := strings.ToLower(item.Title)

	for _, entry := range table {
		for _, keyword := range entry.keywords {
			if strings.Contains(title, keyword) {
				item.EstimatedWeightKg = entry.weightKg
				item.EstimatedVolumeM3 = entry.volumeM3
				return item
			}
		}
	}

	item.EstimatedWeightKg = defaultWeightKg
	item.EstimatedVolumeM3 = defaultVolumeM3
	return item
}
