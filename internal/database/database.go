// Package database provides PostgreSQL and SQLite storage for fetched fuel
// prices behind a single Store interface.
package database

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gasolytics/fuel-price-scraper/internal/models"
)

// Store is the persistence interface for fuel price records.
type Store interface {
	// InsertPrice upserts a price record keyed by (series, price_date).
	InsertPrice(ctx context.Context, price models.FuelPrice) error

	// ExistsForDate checks if a record exists for the series and date.
	ExistsForDate(ctx context.Context, series models.SeriesKind, date time.Time) (bool, error)

	// GetLatestPrice returns the most recent record for a series, or nil
	// when the series has no rows.
	GetLatestPrice(ctx context.Context, series models.SeriesKind) (*models.FuelPrice, error)

	// GetLatestPriceDate returns the most recent price date across all
	// series, or nil when the database is empty.
	GetLatestPriceDate(ctx context.Context) (*time.Time, error)

	// GetTotalPricesCount returns the total number of stored records.
	GetTotalPricesCount(ctx context.Context) (int64, error)

	// GetPricesCountBySeries returns the number of records for one series.
	GetPricesCountBySeries(ctx context.Context, series models.SeriesKind) (int64, error)

	// Ping checks if the database connection is alive.
	Ping() error

	// Close closes the database connection.
	Close() error
}

// New opens a store for the DSN. postgres:// and postgresql:// connection
// strings select PostgreSQL; anything else is treated as a SQLite file path.
func New(dsn string, logger zerolog.Logger) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return NewPostgres(dsn, logger)
	}
	return NewSQLite(dsn, logger)
}
