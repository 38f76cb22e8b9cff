package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is the single persistent entity tracked by the service.
// The json tags are the wire field names and must stay in sync with the
// products table columns.
type Product struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"` // unique across all rows; reconciliation key
	Category      string    `json:"category"`
	AvgPrice      float64   `json:"avg_price"`
	MinPrice      float64   `json:"min_price"`
	MaxPrice      float64   `json:"max_price"`
	ImageURL      *string   `json:"image_url,omitempty"`
	PreviousPrice *float64  `json:"previous_price,omitempty"` // absent until the first update
	LastUpdated   time.Time `json:"last_updated"`
}

// Candidate is a not-yet-persisted record extracted from one listing card.
// RawPrice is the price text exactly as it appeared in the markup.
type Candidate struct {
	Name     string
	RawPrice string
	ImageRef *string
}

// MarketStats aggregates avg_price over the set of products whose names are
// textually similar to the queried product (the queried product included).
type MarketStats struct {
	HighestPrice float64 `json:"highest_price"`
	LowestPrice  float64 `json:"lowest_price"`
	AveragePrice float64 `json:"average_price"`
	SimilarCount int64   `json:"similar_count"`
}
