package browser

import (
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.Headless {
		t.Error("Expected headless to be true by default")
	}

	if opts.Timeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %v", opts.Timeout)
	}

	if opts.ViewportWidth != 1920 || opts.ViewportHeight != 1080 {
		t.Errorf("Expected viewport to be 1920x1080, got %dx%d", opts.ViewportWidth, opts.ViewportHeight)
	}

	if opts.Locale != "en-AU" {
		t.Errorf("Expected locale to be en-AU, got %s", opts.Locale)
	}

	if opts.TimezoneID != "Australia/Sydney" {
		t.Errorf("Expected timezone to be Australia/Sydney, got %s", opts.TimezoneID)
	}
}

func TestContextHeadersCarryAcceptLanguage(t *testing.T) {
	headers := contextHeaders(DefaultOptions())

	if headers["Accept-Language"] != "en-AU,en;q=0.9" {
		t.Errorf("Expected Accept-Language en-AU,en;q=0.9, got %q", headers["Accept-Language"])
	}

	if headers["Accept"] == "" {
		t.Error("Expected existing extra headers to be carried over")
	}

	if _, ok := contextHeaders(&Options{})["Accept-Language"]; ok {
		t.Error("Expected no Accept-Language header when the option is empty")
	}
}

func TestNewFetcherClampsNegativeSettle(t *testing.T) {
	f := NewFetcher(nil, -time.Second, nil)

	if f.settle != 0 {
		t.Errorf("Expected negative settle to clamp to 0, got %v", f.settle)
	}
}
