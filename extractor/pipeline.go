package extractor

import (
	"context"

	"cart-extractor/classifier"
	"cart-extractor/estimator"
	"cart-extractor/internal/types"
	"cart-extractor/reconciler"
)

// CheckoutSummary is everything the host surfaces after one checkout
// interaction: the allowed and prohibited partitions, how many raw
// records failed validation, and the aggregate submission outcome.
type CheckoutSummary struct {
	Provider      types.Provider            `json:"provider"`
	Allowed       []types.CanonicalCartItem `json:"allowed"`
	Prohibited    []types.CanonicalCartItem `json:"prohibited"`
	RejectedCount int                       `json:"rejected_count"`
	Submission    reconciler.Summary        `json:"submission"`
}

// Pipeline composes the full flow: extract, classify, estimate, submit.
type Pipeline struct {
	runner     *Runner
	classifier *classifier.Classifier
	estimator  *estimator.Estimator
	reconciler *reconciler.Reconciler
	logger     types.Logger
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(runner *Runner, cls *classifier.Classifier, est *estimator.Estimator, rec *reconciler.Reconciler, logger types.Logger) *Pipeline {
	return &Pipeline{
		runner:     runner,
		classifier: cls,
		estimator:  est,
		reconciler: rec,
		logger:     logger,
	}
}

// Checkout runs one full checkout interaction against the page context.
// Classification and submission are strictly sequential per item;
// ordering and backend rate behavior matter more than throughput for a
// list of tens of items.
func (p *Pipeline) Checkout(ctx context.Context, page types.PageContext) (*CheckoutSummary, error) {
	result, err := p.runner.Extract(ctx, page)
	if err != nil {
		return nil, err
	}

	summary := &CheckoutSummary{
		Provider:      result.Provider,
		RejectedCount: result.RejectedCount,
	}

	for _, item := range result.Items {
		classified := p.classifier.Classify(ctx, item)
		if classified.Classification == types.ClassificationProhibited {
			summary.Prohibited = append(summary.Prohibited, classified)
			continue
		}
		summary.Allowed = append(summary.Allowed, p.estimator.Estimate(classified))
	}

	if len(summary.Prohibited) > 0 {
		p.logger.Infof("%d items flagged as prohibited", len(summary.Prohibited))
	}

	summary.Submission = p.reconciler.Submit(ctx, summary.Allowed)
	return summary, nil
}
