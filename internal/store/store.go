// Package store persists search history in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS searches (
    id UUID PRIMARY KEY,
    country TEXT NOT NULL,
    departure TEXT NOT NULL,
    request JSONB NOT NULL,
    listing_count INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS listings (
    search_id UUID NOT NULL REFERENCES searches(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    hotel TEXT NOT NULL,
    price TEXT NOT NULL,
    price_value INTEGER,
    stars TEXT NOT NULL,
    resort TEXT NOT NULL,
    rating TEXT NOT NULL,
    nights TEXT NOT NULL,
    date_from TEXT NOT NULL,
    date_to TEXT NOT NULL,
    meal TEXT NOT NULL,
    operator TEXT NOT NULL,
    country TEXT NOT NULL,
    PRIMARY KEY (search_id, position)
);
CREATE INDEX IF NOT EXISTS searches_created_at_idx ON searches (created_at DESC);
`

const insertSearchSQL = `
INSERT INTO searches (id, country, departure, request, listing_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6);
`

const recentSearchesSQL = `
SELECT id, request, listing_count, created_at
FROM searches
ORDER BY created_at DESC
LIMIT $1;
`

const listingsBySearchSQL = `
SELECT hotel, price, stars, resort, rating, nights, date_from, date_to, meal, operator, country
FROM listings
WHERE search_id = $1
ORDER BY position ASC;
`

var listingColumns = []string{
	"search_id", "position", "hotel", "price", "price_value", "stars", "resort",
	"rating", "nights", "date_from", "date_to", "meal", "operator", "country",
}

// Store records searches and their listings.
type Store struct {
	pool DBPool
	log  *zap.Logger
	now  func() time.Time
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
		now:  time.Now,
	}, nil
}

// EnsureSchema creates the history tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordSearch stores req and its listings in one transaction and returns
// the new search id.
func (s *Store) RecordSearch(ctx context.Context, req schemas.SearchRequest, listings []schemas.TourListing) (string, error) {
	params, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode search request: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	id := uuid.NewString()
	if _, err := tx.Exec(ctx, insertSearchSQL,
		id, req.Country.String(), req.Departure.String(), params, len(listings), s.now().UTC(),
	); err != nil {
		return "", fmt.Errorf("failed to insert search: %w", err)
	}

	if len(listings) > 0 {
		if err := s.persistListings(ctx, tx, id, listings); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Search recorded", zap.String("search_id", id), zap.Int("listings", len(listings)))
	return id, nil
}

func (s *Store) persistListings(ctx context.Context, tx pgx.Tx, searchID string, listings []schemas.TourListing) error {
	rows := make([][]interface{}, len(listings))
	for i, l := range listings {
		var priceValue interface{}
		if v, ok := l.PriceValue(); ok {
			priceValue = v
		}
		rows[i] = []interface{}{
			searchID, i, l.Hotel, l.Price, priceValue, l.Stars, l.Resort,
			l.Rating, l.Nights, l.DateFrom, l.DateTo, l.Meal, l.Operator, l.Country,
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"listings"}, listingColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy listings: %w", err)
	}
	if int(n) != len(listings) {
		return fmt.Errorf("mismatch in copied listings count: expected %d, got %d", len(listings), n)
	}
	return nil
}

// RecentSearches returns up to limit searches, newest first.
func (s *Store) RecentSearches(ctx context.Context, limit int) ([]schemas.SearchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, recentSearchesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	records := []schemas.SearchRecord{}
	for rows.Next() {
		var (
			r      schemas.SearchRecord
			params []byte
		)
		if err := rows.Scan(&r.ID, &params, &r.ListingCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		if err := json.Unmarshal(params, &r.Request); err != nil {
			return nil, fmt.Errorf("failed to decode request of search %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return records, nil
}

// ListingsBySearchID returns the listings of one search in extraction order.
func (s *Store) ListingsBySearchID(ctx context.Context, searchID string) ([]schemas.TourListing, error) {
	rows, err := s.pool.Query(ctx, listingsBySearchSQL, searchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	listings := []schemas.TourListing{}
	for rows.Next() {
		var l schemas.TourListing
		if err := rows.Scan(&l.Hotel, &l.Price, &l.Stars, &l.Resort, &l.Rating, &l.Nights,
			&l.DateFrom, &l.DateTo, &l.Meal, &l.Operator, &l.Country); err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return listings, nil
}
