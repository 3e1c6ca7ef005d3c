package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/uttam4027/MHJ-SKU-Checker/internal/classify"
)

// DefaultSettleDelay is how long a page gets to finish client-side rendering
// after the navigation itself completes.
const DefaultSettleDelay = 3 * time.Second

// Fetcher loads search pages through a shared browser context. Each fetch
// opens a fresh page and closes it again, so one stuck page cannot poison
// the rest of a run.
type Fetcher struct {
	browser *Browser
	settle  time.Duration
	logger  *slog.Logger
}

func NewFetcher(b *Browser, settle time.Duration, logger *slog.Logger) *Fetcher {
	if settle < 0 {
		settle = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		browser: b,
		settle:  settle,
		logger:  logger.With("component", "fetcher"),
	}
}

// Fetch navigates to the given URL once and returns the rendered document.
// Navigation is never retried; a failure is reported to the caller and the
// next SKU proceeds on a clean page.
func (f *Fetcher) Fetch(ctx context.Context, url string) (classify.Page, error) {
	if err := ctx.Err(); err != nil {
		return classify.Page{}, err
	}

	page, err := f.browser.NewPage()
	if err != nil {
		return classify.Page{}, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	f.logger.Debug("navigating", "url", url)

	_, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(f.browser.Timeout().Milliseconds())),
	})
	if err != nil {
		return classify.Page{}, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if err := f.waitSettle(ctx); err != nil {
		return classify.Page{}, err
	}

	html, err := page.Content()
	if err != nil {
		return classify.Page{}, fmt.Errorf("failed to read page content: %w", err)
	}

	title, err := page.Title()
	if err != nil {
		return classify.Page{}, fmt.Errorf("failed to read page title: %w", err)
	}

	return classify.Page{HTML: html, Title: title}, nil
}

// waitSettle gives dynamic content time to render before the page is read.
func (f *Fetcher) waitSettle(ctx context.Context) error {
	if f.settle <= 0 {
		return nil
	}

	timer := time.NewTimer(f.settle)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
