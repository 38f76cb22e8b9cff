package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/marketmap/backend/internal/scraper"
)

// ListingFetcher retrieves one listing page of markup.
type ListingFetcher interface {
	FetchListing(ctx context.Context, url string) (string, error)
}

// ProductUpserter is the single store capability the pipeline writes through.
type ProductUpserter interface {
	UpsertProductByName(ctx context.Context, name, category string, price float64, imageRef *string) (uuid.UUID, error)
}

// Config fixes the source of an ingestion run: one listing URL, one category
// stamped onto every product the run creates.
type Config struct {
	ListingURL string
	Category   string
}

// Runner drives the ingestion pipeline: fetch, extract, normalize, reconcile.
type Runner struct {
	fetcher ListingFetcher
	store   ProductUpserter
	cfg     Config
}

func NewRunner(fetcher ListingFetcher, store ProductUpserter, cfg Config) *Runner {
	return &Runner{fetcher: fetcher, store: store, cfg: cfg}
}

// Run executes one ingestion pass. A failed top-level fetch or parse aborts
// the run; per-candidate store failures are logged with the candidate's name
// and do not stop the remaining candidates.
func (r *Runner) Run(ctx context.Context) error {
	markup, err := r.fetcher.FetchListing(ctx, r.cfg.ListingURL)
	if err != nil {
		return fmt.Errorf("ingest: run aborted: %w", err)
	}

	candidates, err := scraper.Extract(markup)
	if err != nil {
		return fmt.Errorf("ingest: run aborted: %w", err)
	}

	saved := 0
	for _, c := range candidates {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		price := scraper.NormalizePrice(c.RawPrice)
		if _, err := r.store.UpsertProductByName(ctx, c.Name, r.cfg.Category, price, c.ImageRef); err != nil {
			log.Printf("ERROR: ingest: failed to save %q: %v", c.Name, err)
			continue
		}
		saved++
	}

	log.Printf("INFO: ingest: run complete, saved %d of %d candidates", saved, len(candidates))
	return nil
}
