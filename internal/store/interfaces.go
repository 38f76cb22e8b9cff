package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketmap/backend/internal/domain"
)

// ProductStorer defines the database operations the ingestion pipeline and
// the statistics engine require of the persistent store.
//
// FindProductsBySimilarity is the capability behind similarity-based
// grouping: implementations decide the similarity measure (the Postgres
// store uses pg_trgm trigrams), callers only supply the threshold.
type ProductStorer interface {
	// UpsertProductByName inserts a new product or, when a row with the same
	// name exists, shifts avg_price into previous_price and overwrites
	// avg_price and image_url. min_price/max_price are only set at insert.
	UpsertProductByName(ctx context.Context, name, category string, price float64, imageRef *string) (uuid.UUID, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindProductByName(ctx context.Context, name string) (*domain.Product, error)
	FindProductsBySimilarity(ctx context.Context, name string, threshold float64) ([]domain.Product, error)
	ListProducts(ctx context.Context, search string) ([]domain.Product, error)
}

// UserStorer defines the database operations for the credential store.
type UserStorer interface {
	CreateUser(ctx context.Context, email, passwordHash string) (uuid.UUID, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
