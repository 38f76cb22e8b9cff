package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/marketmap/backend/internal/domain"
)

// Predefined errors for store operations
var (
	ErrProductNotFound = errors.New("store: product not found")
	ErrUserNotFound    = errors.New("store: user not found")
	ErrEmailExists     = errors.New("store: email already registered")
)

// PostgresStore implements the ProductStorer and UserStorer interfaces using
// PostgreSQL. Mutual exclusion for concurrent reconciliations is delegated to
// the unique index on products.name and the atomic ON CONFLICT upsert; the
// store holds no in-process locks.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// productColumns is shared by every product read path. Prices are NUMERIC in
// the table and cast to float8 on the way out.
const productColumns = `id, name, category, avg_price::float8, min_price::float8, max_price::float8, image_url, previous_price::float8, last_updated`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(rs rowScanner) (*domain.Product, error) {
	var p domain.Product
	var imageURL sql.NullString
	var previousPrice sql.NullFloat64
	err := rs.Scan(
		&p.ID, &p.Name, &p.Category,
		&p.AvgPrice, &p.MinPrice, &p.MaxPrice,
		&imageURL, &previousPrice, &p.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	if previousPrice.Valid {
		p.PreviousPrice = &previousPrice.Float64
	}
	return &p, nil
}

// --- ProductStorer Implementation ---

// UpsertProductByName is the reconciliation write. The insert path seeds
// min/max/avg with the candidate price and leaves previous_price NULL; the
// conflict path shifts the current avg_price into previous_price and
// replaces avg_price and image_url (image_url unconditionally, NULL
// included). min_price/max_price are never revisited after insert.
func (s *PostgresStore) UpsertProductByName(ctx context.Context, name, category string, price float64, imageRef *string) (uuid.UUID, error) {
	query := `
		INSERT INTO products (name, category, avg_price, min_price, max_price, image_url)
		VALUES ($1, $2, $3, $3, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			previous_price = products.avg_price,
			avg_price = EXCLUDED.avg_price,
			image_url = EXCLUDED.image_url,
			last_updated = CURRENT_TIMESTAMP
		RETURNING id;
	`
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query, name, category, price, imageRef).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: UpsertProductByName failed for %q: %w", name, err)
	}
	return id, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1;`
	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return product, nil
}

func (s *PostgresStore) FindProductByName(ctx context.Context, name string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE name = $1;`
	product, err := scanProduct(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: FindProductByName failed to scan row: %w", err)
	}
	return product, nil
}

// FindProductsBySimilarity retains every product whose pg_trgm similarity to
// name is strictly above threshold. The queried name always matches itself
// (similarity 1.0), so a stored product is always in its own retained set.
// Requires the pg_trgm extension.
func (s *PostgresStore) FindProductsBySimilarity(ctx context.Context, name string, threshold float64) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE similarity(name, $1) > $2;`
	rows, err := s.db.QueryContext(ctx, query, name, threshold)
	if err != nil {
		return nil, fmt.Errorf("store: FindProductsBySimilarity failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: FindProductsBySimilarity failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: FindProductsBySimilarity iteration error: %w", err)
	}
	return products, nil
}

// ListProducts returns products whose name or category contains the search
// term (case-insensitive), most recently updated first. An empty search term
// matches everything.
func (s *PostgresStore) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE name ILIKE $1 OR category ILIKE $1 ORDER BY last_updated DESC;`
	rows, err := s.db.QueryContext(ctx, query, "%"+search+"%")
	if err != nil {
		return nil, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, nil
}

// --- UserStorer Implementation ---

func (s *PostgresStore) CreateUser(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id;
	`
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query, email, passwordHash).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // Unique violation on email
			return uuid.Nil, ErrEmailExists
		}
		return uuid.Nil, fmt.Errorf("store: CreateUser failed to scan row: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = $1;`
	var u domain.User
	err := s.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByEmail failed to scan row: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		if err := s.db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
	}
	return nil
}
