// Package classifier screens canonical cart items for regulated or
// prohibited merchandise. Screening is heuristic keyword matching, not a
// legal compliance gate: when in doubt (including on verification-service
// failures) items pass as Allowed, because trapping a legitimate purchase
// costs more than letting the backend's own checks catch an edge case.
package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"cart-extractor/internal/types"
)

// rule is one prohibited keyword phrase with its category and the reason
// surfaced to the shopper.
type rule struct {
	phrase   string
	category string
	reason   string
}

// The fixed screening table. Phrases match the lower-cased title on word
// boundaries with simple plural tolerance (trailing "s"/"es"), so "arma"
// flags "armas" but never "armario".
var rules = []rule{
	{"arma", "weapons", "Weapons cannot be shipped"},
	{"gun", "weapons", "Weapons cannot be shipped"},
	{"pistol", "weapons", "Weapons cannot be shipped"},
	{"pistola", "weapons", "Weapons cannot be shipped"},
	{"rifle", "weapons", "Weapons cannot be shipped"},
	{"revolver", "weapons", "Weapons cannot be shipped"},
	{"firearm", "weapons", "Weapons cannot be shipped"},
	{"shotgun", "weapons", "Weapons cannot be shipped"},
	{"machete", "weapons", "Bladed weapons cannot be shipped"},
	{"dagger", "weapons", "Bladed weapons cannot be shipped"},
	{"ammo", "ammunition", "Ammunition cannot be shipped"},
	{"ammunition", "ammunition", "Ammunition cannot be shipped"},
	{"municion", "ammunition", "Ammunition cannot be shipped"},
	{"bullet", "ammunition", "Ammunition cannot be shipped"},
	{"cartridge", "ammunition", "Ammunition cannot be shipped"},
	{"gunpowder", "ammunition", "Explosive materials cannot be shipped"},
	{"cannabis", "controlled substances", "Controlled substances cannot be shipped"},
	{"marijuana", "controlled substances", "Controlled substances cannot be shipped"},
	{"cbd", "controlled substances", "Controlled substances cannot be shipped"},
	{"vape", "controlled substances", "Vaping products cannot be shipped"},
	{"tactical vest", "tactical gear", "Tactical and military gear cannot be shipped"},
	{"body armor", "tactical gear", "Tactical and military gear cannot be shipped"},
	{"ballistic helmet", "tactical gear", "Tactical and military gear cannot be shipped"},
	{"holster", "tactical gear", "Tactical and military gear cannot be shipped"},
	{"crossbow", "sporting goods", "Restricted sporting goods cannot be shipped"},
	{"airsoft", "sporting goods", "Restricted sporting goods cannot be shipped"},
	{"speargun", "sporting goods", "Restricted sporting goods cannot be shipped"},
	{"taser", "electronics", "Restricted electronics cannot be shipped"},
	{"stun gun", "electronics", "Restricted electronics cannot be shipped"},
	{"signal jammer", "electronics", "Restricted electronics cannot be shipped"},
	{"gold bar", "precious metals", "Precious metals cannot be shipped"},
	{"silver bullion", "precious metals", "Precious metals cannot be shipped"},
	{"lingote", "precious metals", "Precious metals cannot be shipped"},
	{"centrifuge", "lab equipment", "Laboratory equipment cannot be shipped"},
	{"beaker set", "lab equipment", "Laboratory equipment cannot be shipped"},
	{"erlenmeyer", "lab equipment", "Laboratory equipment cannot be shipped"},
}

type compiledRule struct {
	rule
	re *regexp.Regexp
}

func compileRules() []compiledRule {
	compiled := make([]compiledRule, len(rules))
	for i, r := range rules {
		compiled[i] = compiledRule{
			rule: r,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(r.phrase) + `(?:e?s)?\b`),
		}
	}
	return compiled
}

// Verdict is a remote verification result.
type Verdict struct {
	IsProhibited bool   `json:"is_prohibited"`
	Reason       string `json:"reason,omitempty"`
	Category     string `json:"category,omitempty"`
	Keyword      string `json:"keyword,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Service is the external verification collaborator. Optional: a nil
// service means keyword screening alone decides.
type Service interface {
	CheckProhibited(ctx context.Context, title, description string, item types.CanonicalCartItem) (Verdict, error)
}

// Classifier screens items against the keyword table and, when one is
// configured, the remote verification service.
type Classifier struct {
	compiled        []compiledRule
	service         Service
	logger          types.Logger
	serviceFailures int64
}

// New creates a classifier. service may be nil.
func New(service Service, logger types.Logger) *Classifier {
	return &Classifier{
		compiled: compileRules(),
		service:  service,
		logger:   logger,
	}
}

// Classify screens one item and returns it annotated. First matching
// keyword wins; the decision is binary per item, independent of quantity
// and price, and idempotent. A verification-service failure defaults to
// Allowed and is recorded for observability.
func (c *Classifier) Classify(ctx context.Context, item types.CanonicalCartItem) types.CanonicalCartItem {
	title := strings.ToLower(item.Title)

	for _, r := range c.compiled {
		if r.re.MatchString(title) {
			item.Classification = types.ClassificationProhibited
			item.ProhibitedReason = r.reason
			item.ProhibitedCategory = r.category
			item.ProhibitedKeyword = r.phrase
			return item
		}
	}

	if c.service != nil {
		verdict, err := c.service.CheckProhibited(ctx, item.Title, item.VariantOptionsText, item)
		if err != nil || verdict.Error != "" {
			atomic.AddInt64(&c.serviceFailures, 1)
			c.logger.Warnf("Prohibited-item verification failed for %q, allowing: %v",
				item.Title, verificationError(verdict, err))
			item.Classification = types.ClassificationAllowed
			return item
		}
		if verdict.IsProhibited {
			item.Classification = types.ClassificationProhibited
			item.ProhibitedReason = verdict.Reason
			item.ProhibitedCategory = verdict.Category
			item.ProhibitedKeyword = verdict.Keyword
			return item
		}
	}

	item.Classification = types.ClassificationAllowed
	return item
}

// ServiceFailures reports how many verification calls were recovered by
// defaulting to Allowed.
func (c *Classifier) ServiceFailures() int64 {
	return atomic.LoadInt64(&c.serviceFailures)
}

func verificationError(verdict Verdict, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("service reported: %s", verdict.Error)
}
