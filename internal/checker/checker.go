package checker

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/uttam4027/MHJ-SKU-Checker/internal/classify"
	"github.com/uttam4027/MHJ-SKU-Checker/internal/ratelimit"
)

// CheckResult pairs one SKU with its classification outcome. Results are
// immutable once appended and keep the order of the input file.
type CheckResult struct {
	SKU    string          `json:"sku"`
	Status classify.Status `json:"status"`
}

// RunSummary holds the per-status counts over a result sequence. It is
// derived, never stored: recompute it after every appended result.
type RunSummary struct {
	Total    int `json:"total"`
	Listed   int `json:"listed"`
	Delisted int `json:"delisted"`
	Errors   int `json:"errors"`
	Unknown  int `json:"unknown"`
}

// Summarize folds a result sequence into its summary. The counts always
// partition the sequence: Listed+Delisted+Errors+Unknown == Total.
func Summarize(results []CheckResult) RunSummary {
	s := RunSummary{Total: len(results)}
	for _, res := range results {
		switch res.Status {
		case classify.StatusListed:
			s.Listed++
		case classify.StatusDelisted:
			s.Delisted++
		case classify.StatusError:
			s.Errors++
		default:
			s.Unknown++
		}
	}
	return s
}

// Fetcher loads the rendered page behind one search URL. The playwright
// implementation lives in the browser package; tests substitute a stub.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (classify.Page, error)
}

// ItemStartFunc is invoked before each SKU is fetched.
type ItemStartFunc func(index int, sku string)

// ProgressFunc is invoked after each SKU has been classified.
type ProgressFunc func(index int, result CheckResult, summary RunSummary)

type Config struct {
	// BaseURL is the storefront root the search path is appended to.
	BaseURL string
	// Pacer spaces consecutive checks; nil means no delay between items.
	Pacer       ratelimit.Pacer
	OnItemStart ItemStartFunc
	OnResult    ProgressFunc
}

// Runner walks a SKU sequence strictly in order against one live browser
// session: fetch, classify, append, pause. No parallelism, no retries, no
// dedup of repeated SKUs.
type Runner struct {
	fetcher     Fetcher
	pacer       ratelimit.Pacer
	baseURL     string
	onItemStart ItemStartFunc
	onResult    ProgressFunc
	logger      *slog.Logger
}

func NewRunner(fetcher Fetcher, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	pacer := cfg.Pacer
	if pacer == nil {
		pacer = ratelimit.NewFixedPacer(0)
	}
	return &Runner{
		fetcher:     fetcher,
		pacer:       pacer,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		onItemStart: cfg.OnItemStart,
		onResult:    cfg.OnResult,
		logger:      logger.With("component", "checker"),
	}
}

// SearchURL builds the storefront search query for one SKU.
func (r *Runner) SearchURL(sku string) string {
	return fmt.Sprintf("%s/search?q=%s", r.baseURL, url.QueryEscape(sku))
}

// Run checks every SKU in order and returns the ordered results. A failure
// on one SKU is recorded as StatusError and the loop continues; the only
// run-level error is context cancellation, which returns the partial
// results collected so far. The inter-item pause is skipped after the final
// SKU, so a run of n SKUs performs exactly n fetches and n-1 waits.
func (r *Runner) Run(ctx context.Context, skus []string) ([]CheckResult, error) {
	r.logger.Info("run started", "skus", len(skus))

	results := make([]CheckResult, 0, len(skus))
	for i, sku := range skus {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if r.onItemStart != nil {
			r.onItemStart(i, sku)
		}

		res := CheckResult{SKU: sku, Status: r.checkOne(ctx, sku)}
		results = append(results, res)

		summary := Summarize(results)
		if r.onResult != nil {
			r.onResult(i, res, summary)
		}

		if i < len(skus)-1 {
			if err := r.pacer.Wait(ctx); err != nil {
				return results, err
			}
		}
	}

	summary := Summarize(results)
	r.logger.Info("run finished",
		"total", summary.Total,
		"listed", summary.Listed,
		"delisted", summary.Delisted,
		"errors", summary.Errors,
		"unknown", summary.Unknown)

	return results, nil
}

func (r *Runner) checkOne(ctx context.Context, sku string) classify.Status {
	searchURL := r.SearchURL(sku)
	r.logger.Info("checking sku", "sku", sku, "url", searchURL)

	page, err := r.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		r.logger.Warn("check failed", "sku", sku, "error", err)
		return classify.StatusError
	}

	return classify.ClassifyPage(page)
}
