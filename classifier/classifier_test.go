package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cart-extractor/internal/types"
)

func itemTitled(title string) types.CanonicalCartItem {
	return types.CanonicalCartItem{ExternalID: "x1", Title: title, Quantity: 1}
}

func TestClassify_WordBoundaryMatching(t *testing.T) {
	c := New(nil, logrus.New())
	ctx := context.Background()

	// "arma" as a standalone word is prohibited; it must not fire inside
	// longer words.
	prohibited := c.Classify(ctx, itemTitled("Réplica de arma decorativa"))
	assert.Equal(t, types.ClassificationProhibited, prohibited.Classification)
	assert.Equal(t, "arma", prohibited.ProhibitedKeyword)
	assert.Equal(t, "weapons", prohibited.ProhibitedCategory)

	allowed := c.Classify(ctx, itemTitled("Armario de madera para dormitorio"))
	assert.Equal(t, types.ClassificationAllowed, allowed.Classification)

	allowed = c.Classify(ctx, itemTitled("Mueble armable de oficina"))
	assert.Equal(t, types.ClassificationAllowed, allowed.Classification)
}

func TestClassify_PluralTolerance(t *testing.T) {
	c := New(nil, logrus.New())
	ctx := context.Background()

	assert.Equal(t, types.ClassificationProhibited, c.Classify(ctx, itemTitled("Dos armas de juguete")).Classification)
	assert.Equal(t, types.ClassificationProhibited, c.Classify(ctx, itemTitled("Hunting rifles for sale")).Classification)
	assert.Equal(t, types.ClassificationProhibited, c.Classify(ctx, itemTitled("9mm cartridges box")).Classification)
}

func TestClassify_FirstMatchWins(t *testing.T) {
	c := New(nil, logrus.New())

	item := c.Classify(context.Background(), itemTitled("arma con gun holster"))
	assert.Equal(t, types.ClassificationProhibited, item.Classification)
	assert.Equal(t, "arma", item.ProhibitedKeyword)
}

func TestClassify_Idempotent(t *testing.T) {
	c := New(nil, logrus.New())
	ctx := context.Background()

	first := c.Classify(ctx, itemTitled("Tactical vest with pouches"))
	second := c.Classify(ctx, first)

	assert.Equal(t, first.Classification, second.Classification)
	assert.Equal(t, first.ProhibitedKeyword, second.ProhibitedKeyword)
	assert.Equal(t, first.ProhibitedReason, second.ProhibitedReason)
}

type stubService struct {
	verdict Verdict
	err     error
	calls   int
}

func (s *stubService) CheckProhibited(ctx context.Context, title, description string, item types.CanonicalCartItem) (Verdict, error) {
	s.calls++
	return s.verdict, s.err
}

func TestClassify_ServiceErrorDefaultsToAllowed(t *testing.T) {
	svc := &stubService{err: errors.New("connection refused")}
	c := New(svc, logrus.New())

	item := c.Classify(context.Background(), itemTitled("Ordinary desk lamp"))

	assert.Equal(t, types.ClassificationAllowed, item.Classification)
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, int64(1), c.ServiceFailures())
}

func TestClassify_ServiceErrorFieldDefaultsToAllowed(t *testing.T) {
	svc := &stubService{verdict: Verdict{Error: "internal error"}}
	c := New(svc, logrus.New())

	item := c.Classify(context.Background(), itemTitled("Ordinary desk lamp"))

	assert.Equal(t, types.ClassificationAllowed, item.Classification)
	assert.Equal(t, int64(1), c.ServiceFailures())
}

func TestClassify_ServiceVerdictProhibits(t *testing.T) {
	svc := &stubService{verdict: Verdict{
		IsProhibited: true,
		Reason:       "Flagged by catalog review",
		Category:     "electronics",
		Keyword:      "jammer",
	}}
	c := New(svc, logrus.New())

	item := c.Classify(context.Background(), itemTitled("Ordinary desk lamp"))

	require.Equal(t, types.ClassificationProhibited, item.Classification)
	assert.Equal(t, "Flagged by catalog review", item.ProhibitedReason)
	assert.Equal(t, "jammer", item.ProhibitedKeyword)
}

func TestClassify_KeywordMatchSkipsService(t *testing.T) {
	svc := &stubService{}
	c := New(svc, logrus.New())

	item := c.Classify(context.Background(), itemTitled("Crossbow bolts pack"))

	assert.Equal(t, types.ClassificationProhibited, item.Classification)
	assert.Zero(t, svc.calls)
}
