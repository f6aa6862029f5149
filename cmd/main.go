package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"cart-extractor/classifier"
	"cart-extractor/dispatcher"
	"cart-extractor/estimator"
	"cart-extractor/extractor"
	"cart-extractor/internal/types"
	"cart-extractor/reconciler"
	"cart-extractor/utils"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "cart-extractor",
		Usage: "pull a shopper's in-progress cart from a storefront into the order pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "storefront page URL to extract from", Required: true},
			&cli.StringFlag{Name: "html-file", Usage: "pre-rendered page markup (skips the headless browser)"},
			&cli.StringFlag{Name: "output", Usage: "output file path (default: stdout)"},
			&cli.StringFlag{Name: "backend", Usage: "backend base URL", Value: "http://localhost:8080", EnvVars: []string{"BACKEND_BASE_URL"}},
			&cli.DurationFlag{Name: "delay", Usage: "delay between backend requests", Value: 1 * time.Second},
			&cli.IntFlag{Name: "retries", Usage: "maximum retry attempts", Value: 3},
			&cli.DurationFlag{Name: "timeout", Usage: "request timeout", Value: 30 * time.Second},
			&cli.DurationFlag{Name: "extraction-timeout", Usage: "how long to await the terminal extraction message", Value: 15 * time.Second},
			&cli.BoolFlag{Name: "browser", Usage: "use headless browser to render the page", Value: true},
			&cli.BoolFlag{Name: "dry-run", Usage: "extract and classify without submitting to the backend cart"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable verbose logging"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := newLogger(c.Bool("verbose"))

	config := types.DefaultConfig()
	config.RequestDelay = c.Duration("delay")
	config.MaxRetries = c.Int("retries")
	config.Timeout = c.Duration("timeout")
	config.ExtractionTimeout = c.Duration("extraction-timeout")
	config.UseHeadlessBrowser = c.Bool("browser") && c.String("html-file") == ""
	config.BackendBaseURL = c.String("backend")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pageURL := c.String("url")
	disp := dispatcher.New(config, logger)

	// Prefer the provider's canonical cart URL when the current page is
	// not already the cart; unknown providers are extracted in place.
	if !disp.IsCartPage(pageURL) {
		if cartURL, ok := disp.CartURL(pageURL); ok {
			logger.Infof("Not a cart page, navigating to %s", cartURL)
			pageURL = cartURL
		}
	}

	page, err := loadPage(ctx, config, logger, pageURL, c.String("html-file"))
	if err != nil {
		return err
	}

	pipeline, closeFn := buildPipeline(config, logger, disp, c.Bool("dry-run"))
	defer closeFn()

	startTime := time.Now()
	summary, err := pipeline.Checkout(ctx, page)
	if err != nil {
		return fmt.Errorf("checkout failed: %w", err)
	}
	logger.Infof("Checkout completed in %v", time.Since(startTime))

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if output := c.String("output"); output != "" {
		if err := os.WriteFile(output, jsonData, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Infof("Results written to: %s", output)
	} else {
		fmt.Println(string(jsonData))
	}

	logger.Infof("Added %d, failed %d, prohibited %d, rejected %d",
		summary.Submission.SuccessCount, summary.Submission.FailCount,
		len(summary.Prohibited), summary.RejectedCount)
	return nil
}

func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

func loadPage(ctx context.Context, config *types.Config, logger types.Logger, pageURL, htmlFile string) (types.PageContext, error) {
	if htmlFile != "" {
		html, err := os.ReadFile(htmlFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read html file: %w", err)
		}
		return utils.NewStaticPage(pageURL, string(html)), nil
	}

	fetcher := utils.NewPageFetcher(config, logger)
	defer fetcher.Close()
	page, err := fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve page: %w", err)
	}
	return page, nil
}

func buildPipeline(config *types.Config, logger types.Logger, disp *dispatcher.Dispatcher, dryRun bool) (*extractor.Pipeline, func()) {
	notify := func(message string) {
		logger.Warnf("Notice: %s", message)
	}
	runner := extractor.NewRunner(config, logger, disp, notify)

	var cls *classifier.Classifier
	var rec *reconciler.Reconciler
	var closers []func()

	if dryRun {
		cls = classifier.New(nil, logger)
		rec = reconciler.New(noopCart{}, logger)
	} else {
		service := classifier.NewHTTPService(config, logger)
		backend := reconciler.NewHTTPBackend(config, logger)
		closers = append(closers, service.Close, backend.Close)
		cls = classifier.New(service, logger)
		rec = reconciler.New(backend, logger)
	}

	pipeline := extractor.NewPipeline(runner, cls, estimator.New(logger), rec, logger)
	return pipeline, func() {
		for _, c := range closers {
			c()
		}
	}
}

// noopCart records nothing; dry runs report every item as added.
type noopCart struct{}

func (noopCart) AddToCart(ctx context.Context, product reconciler.BackendProduct, qty int) error {
	return nil
}

func (noopCart) RefreshCart(ctx context.Context) error { return nil }
