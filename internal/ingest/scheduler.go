package ingest

import (
	"context"
	"log"
	"time"
)

// Start runs one ingestion pass immediately, then one per interval, until
// ctx is cancelled. Blocks; callers run it in its own goroutine.
func (r *Runner) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("INFO: ingest: scheduler started, interval %v", interval)

	if err := r.Run(ctx); err != nil {
		log.Printf("ERROR: ingest: scheduled run failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("INFO: ingest: scheduler stopping, context cancelled")
			return
		case <-ticker.C:
			if err := r.Run(ctx); err != nil {
				log.Printf("ERROR: ingest: scheduled run failed: %v", err)
			}
		}
	}
}
