package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"cart-extractor/internal/types"
	"cart-extractor/utils"
)

// HTTPService calls the backend's prohibited-product verification
// endpoint. Transport errors surface to the classifier, which defaults
// the item to Allowed.
type HTTPService struct {
	http    *utils.HTTPClient
	baseURL string
	logger  types.Logger
}

// NewHTTPService creates a verification client against the backend.
func NewHTTPService(config *types.Config, logger types.Logger) *HTTPService {
	return &HTTPService{
		http:    utils.NewHTTPClient(config, logger),
		baseURL: config.BackendBaseURL,
		logger:  logger,
	}
}

type checkRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	URL         string `json:"url"`
	Provider    string `json:"provider"`
}

// CheckProhibited asks the backend whether the product is prohibited.
func (s *HTTPService) CheckProhibited(ctx context.Context, title, description string, item types.CanonicalCartItem) (Verdict, error) {
	req := checkRequest{
		Title:       title,
		Description: description,
		Price:       item.UnitPrice.String(),
		URL:         item.SourceURL,
		Provider:    string(item.Provider),
	}

	body, err := s.http.PostJSON(ctx, s.baseURL+"/api/products/check-prohibited", req)
	if err != nil {
		return Verdict{}, fmt.Errorf("verification request failed: %w", err)
	}

	var verdict Verdict
	if err := json.Unmarshal(body, &verdict); err != nil {
		return Verdict{}, fmt.Errorf("failed to decode verification response: %w", err)
	}
	return verdict, nil
}

// Close cleans up resources.
func (s *HTTPService) Close() {
	s.http.Close()
}
