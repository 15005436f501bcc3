package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dfimoveis_scraper/identity"
	"dfimoveis_scraper/models"
)

// PostgresStore is the optional durable home for scraped listings. Rows are
// keyed by address fingerprint so re-running the crawl refreshes listings
// instead of duplicating them.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id UUID PRIMARY KEY,
		fingerprint TEXT UNIQUE NOT NULL,
		site_id TEXT NOT NULL,
		price TEXT,
		address TEXT,
		usable_area TEXT,
		bedrooms TEXT,
		suites TEXT,
		parking TEXT,
		url TEXT,
		first_seen_at TIMESTAMPTZ NOT NULL,
		last_seen_at TIMESTAMPTZ NOT NULL,
		times_seen INTEGER NOT NULL DEFAULT 1
	)`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// SaveListings upserts one crawl's listings. Already-known advertisements
// get their price and last_seen_at refreshed.
func (s *PostgresStore) SaveListings(ctx context.Context, siteID string, listings []models.Listing) (int, error) {
	query := `
		INSERT INTO listings (
			id, fingerprint, site_id, price, address, usable_area,
			bedrooms, suites, parking, url, first_seen_at, last_seen_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (fingerprint) DO UPDATE SET
			price = EXCLUDED.price,
			url = EXCLUDED.url,
			last_seen_at = EXCLUDED.last_seen_at,
			times_seen = listings.times_seen + 1`

	saved := 0
	now := time.Now()
	for i := range listings {
		l := &listings[i]
		_, err := s.pool.Exec(ctx, query,
			uuid.New(), identity.Fingerprint(l), siteID,
			l.Price, l.Address, l.Area, l.Bedrooms, l.Suites, l.Parking, l.URL,
			now,
		)
		if err != nil {
			return saved, fmt.Errorf("upsert listing %s: %w", l.URL, err)
		}
		saved++
	}
	return saved, nil
}
