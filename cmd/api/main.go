package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"cart-extractor/classifier"
	"cart-extractor/dispatcher"
	"cart-extractor/estimator"
	"cart-extractor/extractor"
	"cart-extractor/internal/types"
	"cart-extractor/reconciler"
	"cart-extractor/utils"
)

// APIRequest is the extraction request from the mobile host. When HTML is
// supplied the page is treated as already rendered; otherwise the server
// renders URL in the headless browser.
type APIRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html,omitempty"`
}

// APIResponse wraps the checkout summary.
type APIResponse struct {
	Success bool                       `json:"success"`
	Data    *extractor.CheckoutSummary `json:"data,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

type server struct {
	config   *types.Config
	logger   *logrus.Logger
	pipeline *extractor.Pipeline
	fetcher  *utils.PageFetcher
}

func main() {
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	}

	config := types.DefaultConfig()
	if backend := os.Getenv("BACKEND_BASE_URL"); backend != "" {
		config.BackendBaseURL = backend
	}
	if os.Getenv("USE_HEADLESS_BROWSER") == "false" {
		config.UseHeadlessBrowser = false
	}

	disp := dispatcher.New(config, logger)
	runner := extractor.NewRunner(config, logger, disp, func(message string) {
		logger.Warnf("Notice: %s", message)
	})
	service := classifier.NewHTTPService(config, logger)
	defer service.Close()
	backend := reconciler.NewHTTPBackend(config, logger)
	defer backend.Close()

	s := &server{
		config: config,
		logger: logger,
		pipeline: extractor.NewPipeline(
			runner,
			classifier.New(service, logger),
			estimator.New(logger),
			reconciler.New(backend, logger),
			logger,
		),
		fetcher: utils.NewPageFetcher(config, logger),
	}
	defer s.fetcher.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/extract", s.handleExtract)
	mux.HandleFunc("/health", s.handleHealth)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}
	logger.Infof("API listening on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, mux))
}

func (s *server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req APIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Error: "invalid request body"})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, APIResponse{Error: "url is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	page, err := s.loadPage(ctx, req)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, APIResponse{Error: err.Error()})
		return
	}

	summary, err := s.pipeline.Checkout(ctx, page)
	if err != nil {
		// Every pipeline failure is a retryable notice, not a server
		// fault: extraction is adversarial by nature.
		writeJSON(w, http.StatusOK, APIResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: summary})
}

func (s *server) loadPage(ctx context.Context, req APIRequest) (types.PageContext, error) {
	if req.HTML != "" {
		return utils.NewStaticPage(req.URL, req.HTML), nil
	}
	page, err := s.fetcher.FetchPage(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve page: %w", err)
	}
	return page, nil
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
