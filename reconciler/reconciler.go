// Package reconciler pushes canonical items to the authoritative backend
// cart and tracks per-item outcomes. Partial failure is normal, not
// exceptional: a failed item never stops the ones after it, and the
// aggregate summary is what the UI renders.
package reconciler

import (
	"context"

	"cart-extractor/internal/types"
)

// CartService is the external cart collaborator.
type CartService interface {
	// AddToCart issues one add call for qty units of the product.
	AddToCart(ctx context.Context, product BackendProduct, qty int) error
	// RefreshCart re-fetches the authoritative cart snapshot.
	RefreshCart(ctx context.Context) error
}

// Summary aggregates an extraction pass's submission outcomes.
type Summary struct {
	SuccessCount int                       `json:"success_count"`
	FailCount    int                       `json:"fail_count"`
	Outcomes     []types.SubmissionOutcome `json:"outcomes"`
}

// Reconciler drives per-item submission against the cart service.
type Reconciler struct {
	cart   CartService
	logger types.Logger
}

// New creates a reconciler.
func New(cart CartService, logger types.Logger) *Reconciler {
	return &Reconciler{cart: cart, logger: logger}
}

// Submit pushes items to the backend cart strictly sequentially: item i+1
// is attempted only after item i's outcome is recorded, keeping backend
// ordering and rate predictable. After the loop the cart snapshot is
// refreshed exactly once, however many calls failed, so the UI never
// shows a stale cart after a successful submission.
func (r *Reconciler) Submit(ctx context.Context, items []types.CanonicalCartItem) Summary {
	summary := Summary{Outcomes: make([]types.SubmissionOutcome, 0, len(items))}

	for _, item := range items {
		outcome := types.SubmissionOutcome{Item: item}

		err := r.cart.AddToCart(ctx, backendProductFor(item), item.Quantity)
		if err != nil {
			outcome.ErrorMessage = err.Error()
			summary.FailCount++
			r.logger.Warnf("Failed to add %q to cart: %v", item.Title, err)
		} else {
			outcome.Succeeded = true
			summary.SuccessCount++
			r.logger.Debugf("Added %q to cart (qty %d)", item.Title, item.Quantity)
		}

		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	if len(items) > 0 {
		if err := r.cart.RefreshCart(ctx); err != nil {
			r.logger.Warnf("Cart refresh failed: %v", err)
		}
	}

	r.logger.Infof("Submission complete: %d added, %d failed", summary.SuccessCount, summary.FailCount)
	return summary
}
