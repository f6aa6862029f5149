package estimator

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"cart-extractor/internal/types"
)

func TestEstimate_KeywordMatch(t *testing.T) {
	e := New(logrus.New())

	tests := []struct {
		title    string
		weightKg float64
		volumeM3 float64
	}{
		{"Gaming Laptop 15.6 inch", 2.5, 0.008},
		{"Televisor LED 55 pulgadas", 12.0, 0.15},
		{"Funda para celular", 0.3, 0.0005},
		{"Camisa de vestir manga larga", 0.25, 0.002},
		{"Licuadora de alta potencia", 3.0, 0.02},
	}

	for _, tt := range tests {
		item := e.Estimate(types.CanonicalCartItem{Title: tt.title})
		assert.Equal(t, tt.weightKg, item.EstimatedWeightKg, tt.title)
		assert.Equal(t, tt.volumeM3, item.EstimatedVolumeM3, tt.title)
	}
}

func TestEstimate_CaseInsensitive(t *testing.T) {
	e := New(logrus.New())

	item := e.Estimate(types.CanonicalCartItem{Title: "LAPTOP Stand Aluminum"})
	assert.Equal(t, 2.5, item.EstimatedWeightKg)
}

func TestEstimate_FirstEntryWins(t *testing.T) {
	e := New(logrus.New())

	// "laptop" appears before "book" in the table.
	item := e.Estimate(types.CanonicalCartItem{Title: "Laptop cookbook for beginners"})
	assert.Equal(t, 2.5, item.EstimatedWeightKg)
	assert.Equal(t, 0.008, item.EstimatedVolumeM3)
}

func TestEstimate_Defaults(t *testing.T) {
	e := New(logrus.New())

	item := e.Estimate(types.CanonicalCartItem{Title: "Ceramic planter pot"})
	assert.Equal(t, defaultWeightKg, item.EstimatedWeightKg)
	assert.Equal(t, defaultVolumeM3, item.EstimatedVolumeM3)
}

func TestEstimate_PreservesOtherFields(t *testing.T) {
	e := New(logrus.New())

	in := types.CanonicalCartItem{ExternalID: "b1", Title: "Paperback libro", Quantity: 3}
	out := e.Estimate(in)

	assert.Equal(t, "b1", out.ExternalID)
	assert.Equal(t, 3, out.Quantity)
	assert.Equal(t, 0.5, out.EstimatedWeightKg)
}
