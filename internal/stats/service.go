package stats

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketmap/backend/internal/domain"
)

// SimilarityThreshold is the minimum fuzzy-match score, on a 0-1 scale, for
// two product names to count as the same kind of product.
const SimilarityThreshold = 0.3

// ProductFinder is the slice of the store the statistics engine reads
// through. The similarity measure lives behind FindProductsBySimilarity, so
// swapping the algorithm or threshold never touches the aggregation below.
type ProductFinder interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindProductsBySimilarity(ctx context.Context, name string, threshold float64) ([]domain.Product, error)
}

// Service computes market statistics over products textually similar to a
// queried product. Similarity-based grouping stands in for an explicit
// product taxonomy and tolerates naming variance across listings.
type Service struct {
	store     ProductFinder
	threshold float64
}

func NewService(store ProductFinder) *Service {
	return &Service{store: store, threshold: SimilarityThreshold}
}

// MarketStats resolves productID to its stored name, retains every product
// whose name similarity is strictly above the threshold (the queried product
// always retains itself), and aggregates avg_price over the retained set.
// An unknown id surfaces the store's not-found error unchanged.
func (s *Service) MarketStats(ctx context.Context, productID uuid.UUID) (*domain.MarketStats, error) {
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	similar, err := s.store.FindProductsBySimilarity(ctx, product.Name, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("stats: similarity lookup for %q failed: %w", product.Name, err)
	}

	result := &domain.MarketStats{}
	if len(similar) == 0 {
		// Self-match always qualifies, so an empty set should not occur;
		// all-zero aggregates rather than an error if it ever does.
		return result, nil
	}

	result.HighestPrice = similar[0].AvgPrice
	result.LowestPrice = similar[0].AvgPrice
	var sum float64
	for _, p := range similar {
		if p.AvgPrice > result.HighestPrice {
			result.HighestPrice = p.AvgPrice
		}
		if p.AvgPrice < result.LowestPrice {
			result.LowestPrice = p.AvgPrice
		}
		sum += p.AvgPrice
	}
	result.AveragePrice = sum / float64(len(similar))
	result.SimilarCount = int64(len(similar))

	return result, nil
}
