package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Fetcher retrieves listing pages over a single shared HTTP client with a
// browser-like identification string. Constructed once at startup and passed
// into the ingestion runner.
type Fetcher struct {
	httpClient  *http.Client
	userAgent   string
	rateLimiter *rate.Limiter
}

// NewFetcher creates a Fetcher. Each ingestion run fetches one page; the
// limiter exists so a misconfigured scheduler cannot hammer the site.
func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient:  &http.Client{Timeout: timeout},
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(1), 2),
	}
}

// FetchListing performs a GET against the listing URL and returns the
// response markup. Transport failures and non-200 statuses are returned as
// errors; the caller treats them as fatal to the ingestion run.
func (f *Fetcher) FetchListing(ctx context.Context, url string) (string, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("scraper: rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("scraper: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("scraper: listing fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scraper: listing fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("scraper: failed to read listing body: %w", err)
	}
	return string(body), nil
}
