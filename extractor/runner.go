// Package extractor hosts the extraction pipeline: it selects a strategy
// for the current page, runs it against the page context, enforces the
// messaging contract and timeout, and normalizes the terminal payload.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"cart-extractor/canonical"
	"cart-extractor/internal/types"
	"cart-extractor/protocol"
	"cart-extractor/strategies"
)

// Errors surfaced to the caller as dismissable, retryable notices. There
// is no automatic retry: re-triggering is the user's call.
var (
	ErrExtractionInFlight = errors.New("an extraction is already in progress")
	ErrExtractionTimeout  = errors.New("extraction timed out")
)

// StrategySelector maps a page URL to its extraction strategy. The
// dispatcher satisfies this.
type StrategySelector interface {
	Select(rawURL string) strategies.ExtractionStrategy
	ProviderFor(rawURL string) types.Provider
}

// NoticeFunc receives user-visible failure notices. Exactly one notice is
// emitted per failed extraction attempt.
type NoticeFunc func(message string)

// ExtractionResult is one successful pass through extraction and
// normalization.
type ExtractionResult struct {
	InvocationID  string                    `json:"invocation_id"`
	Provider      types.Provider            `json:"provider"`
	Items         []types.CanonicalCartItem `json:"items"`
	RejectedCount int                       `json:"rejected_count"`
}

// Runner awaits the single terminal message of each extraction
// invocation. The page context is a shared resource, so no two
// invocations may be in flight at once: the awaiting flag is process-wide
// and reset exactly once per attempt.
type Runner struct {
	config     *types.Config
	logger     types.Logger
	selector   StrategySelector
	normalizer *canonical.Normalizer
	notify     NoticeFunc

	mu       sync.Mutex
	awaiting bool
}

// NewRunner creates a runner. notify may be nil.
func NewRunner(config *types.Config, logger types.Logger, selector StrategySelector, notify NoticeFunc) *Runner {
	if notify == nil {
		notify = func(string) {}
	}
	return &Runner{
		config:     config,
		logger:     logger,
		selector:   selector,
		normalizer: canonical.New(logger),
		notify:     notify,
	}
}

// Extract runs one extraction pass against the page context and returns
// the normalized result. A request while another is pending returns
// ErrExtractionInFlight without launching a second pass.
func (r *Runner) Extract(ctx context.Context, page types.PageContext) (*ExtractionResult, error) {
	r.mu.Lock()
	if r.awaiting {
		r.mu.Unlock()
		return nil, ErrExtractionInFlight
	}
	r.awaiting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.awaiting = false
		r.mu.Unlock()
	}()

	invocationID := uuid.NewString()
	strategy := r.selector.Select(page.URL())
	r.logger.Infof("Starting extraction %s: provider=%s url=%s", invocationID, strategy.Provider(), page.URL())

	out := protocol.NewMessenger()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				out.PostError(fmt.Sprintf("extraction panicked: %v", rec))
			}
		}()
		strategy.Run(ctx, page, out)
	}()

	timer := time.NewTimer(r.config.ExtractionTimeout)
	defer timer.Stop()

	for {
		select {
		case raw := <-out.Messages():
			env, err := protocol.Decode(raw)
			if err != nil {
				// A malformed message is an extraction failure, never a
				// crash.
				r.logger.Warnf("Extraction %s: %v", invocationID, err)
				r.notify("Could not read the cart from this page. Please try again.")
				return nil, fmt.Errorf("extraction %s: %w", invocationID, err)
			}

			switch env.Type {
			case protocol.MessageLog:
				r.logger.Infof("Extraction %s: %s", invocationID, env.Message)
			case protocol.MessageDebug:
				r.logger.Debugf("Extraction %s: %s", invocationID, env.Message)
			case protocol.MessageError:
				r.logger.Warnf("Extraction %s failed: %s", invocationID, env.Message)
				r.notify("No cart items were found on this page.")
				return nil, fmt.Errorf("extraction %s failed: %s", invocationID, env.Message)
			case protocol.MessageCartExtracted:
				normalized := r.normalizer.Normalize(strategy.Provider(), page.URL(), env.Payload)
				r.logger.Infof("Extraction %s: %d items, %d rejected", invocationID, len(normalized.Items), normalized.RejectedCount)
				return &ExtractionResult{
					InvocationID:  invocationID,
					Provider:      strategy.Provider(),
					Items:         normalized.Items,
					RejectedCount: normalized.RejectedCount,
				}, nil
			}

		case <-timer.C:
			// The in-flight page-context computation cannot be stopped;
			// waiting for it is abandoned.
			r.logger.Warnf("Extraction %s: no terminal message within %v", invocationID, r.config.ExtractionTimeout)
			r.notify("Cart extraction timed out. Please try again.")
			return nil, ErrExtractionTimeout

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
