package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cart-extractor/internal/types"
	"cart-extractor/utils"
)

// BackendProduct is the canonical item renamed to the backend cart
// schema.
type BackendProduct struct {
	ProductName  string `json:"product_name"`
	ProductPrice string `json:"product_price"`
	ProductImage string `json:"product_image"`
	ProductURL   string `json:"product_url"`
	Source       string `json:"source"`
	ASIN         string `json:"asin"`
	Color        string `json:"color"`
	Talla        string `json:"talla"`
}

// backendProductFor maps canonical fields to the backend's names.
func backendProductFor(item types.CanonicalCartItem) BackendProduct {
	return BackendProduct{
		ProductName:  item.Title,
		ProductPrice: item.UnitPrice.String(),
		ProductImage: item.ImageURL,
		ProductURL:   item.SourceURL,
		Source:       string(item.Provider),
		ASIN:         item.ExternalID,
		Color:        item.VariantColor,
		Talla:        item.VariantSize,
	}
}

// ErrDuplicateAppeal is returned when the shopper already appealed this
// product's classification.
var ErrDuplicateAppeal = errors.New("appeal already submitted for this product")

// HTTPBackend implements CartService and the appeal collaborator against
// the backend's JSON API.
type HTTPBackend struct {
	http    *utils.HTTPClient
	baseURL string
	logger  types.Logger
}

// NewHTTPBackend creates a backend client.
func NewHTTPBackend(config *types.Config, logger types.Logger) *HTTPBackend {
	return &HTTPBackend{
		http:    utils.NewHTTPClient(config, logger),
		baseURL: config.BackendBaseURL,
		logger:  logger,
	}
}

type addToCartRequest struct {
	BackendProduct
	Quantity int `json:"quantity"`
}

type backendResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AddToCart issues one add-to-cart call.
func (b *HTTPBackend) AddToCart(ctx context.Context, product BackendProduct, qty int) error {
	req := addToCartRequest{BackendProduct: product, Quantity: qty}

	body, err := b.http.PostJSON(ctx, b.baseURL+"/api/cart/add", req)
	if err != nil {
		return fmt.Errorf("add-to-cart request failed: %w", err)
	}

	var resp backendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode add-to-cart response: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("backend rejected item: %s", resp.Error)
	}
	return nil
}

// RefreshCart re-fetches the authoritative cart snapshot.
func (b *HTTPBackend) RefreshCart(ctx context.Context) error {
	if _, err := b.http.Get(ctx, b.baseURL+"/api/cart"); err != nil {
		return fmt.Errorf("cart refresh failed: %w", err)
	}
	return nil
}

type appealRequest struct {
	BackendProduct
	Justification string `json:"justification"`
}

// SubmitAppeal disputes a prohibited classification with a free-text
// justification.
func (b *HTTPBackend) SubmitAppeal(ctx context.Context, item types.CanonicalCartItem, justification string) error {
	req := appealRequest{
		BackendProduct: backendProductFor(item),
		Justification:  justification,
	}

	body, err := b.http.PostJSON(ctx, b.baseURL+"/api/appeals", req)
	if err != nil {
		return fmt.Errorf("appeal request failed: %w", err)
	}

	var resp backendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode appeal response: %w", err)
	}
	if resp.Code == "DUPLICATE_APPEAL" {
		return ErrDuplicateAppeal
	}
	if !resp.Success {
		return fmt.Errorf("appeal rejected: %s", resp.Error)
	}
	return nil
}

// Close cleans up resources.
func (b *HTTPBackend) Close() {
	b.http.Close()
}
