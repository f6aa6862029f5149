package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifies a supported storefront family.
type Provider string

// Known storefront identifiers. ProviderGeneric is the fallback used when
// the current page's host matches no known storefront.
const (
	ProviderAmazon  Provider = "amazon"
	ProviderWalmart Provider = "walmart"
	ProviderTemu    Provider = "temu"
	ProviderShein   Provider = "shein"
	ProviderGeneric Provider = "generic"
)

// RawRecord is the provider-native, unvalidated shape emitted by an
// extraction tier. Field names and value types vary per provider (price may
// be a string with currency symbols, integer cents, or absent); nothing is
// guaranteed until the record passes through the normalizer.
type RawRecord map[string]interface{}

// Classification is the binary outcome of prohibited-item screening.
type Classification string

const (
	ClassificationAllowed    Classification = "allowed"
	ClassificationProhibited Classification = "prohibited"
)

// CanonicalCartItem is the validated, provider-agnostic cart line item that
// every extraction strategy must converge to. It is created by the
// normalizer, annotated by the classifier and estimator, and consumed
// read-only by the reconciler. It is never persisted; the backend cart is
// the durable store.
type CanonicalCartItem struct {
	ExternalID         string          `json:"external_id"`
	Title              string          `json:"title"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Quantity           int             `json:"quantity"`
	ImageURL           string          `json:"image_url"`
	SourceURL          string          `json:"source_url"`
	Provider           Provider        `json:"provider"`
	VariantColor       string          `json:"variant_color,omitempty"`
	VariantSize        string          `json:"variant_size,omitempty"`
	VariantOptionsText string          `json:"variant_options_text,omitempty"`

	// Derived after normalization.
	EstimatedWeightKg  float64        `json:"estimated_weight_kg,omitempty"`
	EstimatedVolumeM3  float64        `json:"estimated_volume_m3,omitempty"`
	Classification     Classification `json:"classification,omitempty"`
	ProhibitedReason   string         `json:"prohibited_reason,omitempty"`
	ProhibitedCategory string         `json:"prohibited_category,omitempty"`
	ProhibitedKeyword  string         `json:"prohibited_keyword,omitempty"`
}

// DedupeKey identifies an item for duplicate collapsing within one
// extraction pass: two records sharing the same external identifier and the
// same variant descriptor text are the same line item.
func (c CanonicalCartItem) DedupeKey() string {
	return c.ExternalID + "|" + c.VariantOptionsText
}

// SubmissionOutcome records the result of one attempted backend cart call.
// Outcomes are never discarded silently; the reconciler aggregates them for
// UI reporting.
type SubmissionOutcome struct {
	Item         CanonicalCartItem `json:"item"`
	Succeeded    bool              `json:"succeeded"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// PageContext is the strategy's view of the isolated page-rendering
// context: the only place with direct access to a storefront page's
// rendered state. Implementations wrap either a live headless-browser
// capture or pre-fetched HTML in tests.
type PageContext interface {
	// URL returns the address of the rendered page.
	URL() string
	// HTML returns the full rendered markup of the page.
	HTML() string
}

// Config holds the configuration for the extraction pipeline.
type Config struct {
	RequestDelay       time.Duration
	MaxRetries         int
	Timeout            time.Duration
	ExtractionTimeout  time.Duration
	UseHeadlessBrowser bool
	UserAgent          string
	BackendBaseURL     string
	MaxFallbackItems   int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RequestDelay:       1 * time.Second,
		MaxRetries:         3,
		Timeout:            30 * time.Second,
		ExtractionTimeout:  15 * time.Second,
		UseHeadlessBrowser: true,
		UserAgent:          "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		BackendBaseURL:     "http://localhost:8080",
		MaxFallbackItems:   40,
	}
}

// Logger defines the logging interface.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
