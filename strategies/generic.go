package strategies

import (
	"context"

	"cart-extractor/internal/types"
	"cart-extractor/protocol"
)

// GenericStrategy is the fallback for storefronts with no dedicated
// strategy. It has no provider-specific knowledge to mine state or markers
// with, so it goes straight to the removal-anchored walk and the capped
// generic heuristic.
type GenericStrategy struct {
	*BaseStrategy
}

// NewGenericStrategy creates a new generic fallback strategy.
func NewGenericStrategy(config *types.Config, logger types.Logger) *GenericStrategy {
	return &GenericStrategy{
		BaseStrategy: NewBaseStrategy(types.ProviderGeneric, config, logger),
	}
}

// Run executes the extraction tiers and posts the terminal message.
func (g *GenericStrategy) Run(ctx context.Context, page types.PageContext, out *protocol.Messenger) {
	g.runTiers(ctx, page, out, []tier{
		g.removalTier(),
		g.fallbackTier(),
	})
}
