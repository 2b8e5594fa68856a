package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/gasolytics/fuel-price-scraper/internal/models"
)

var _ Store = (*Postgres)(nil)

// Postgres implements Store on a PostgreSQL database. The fuel_prices table
// is expected to exist (schema managed outside the service):
//
//	CREATE TABLE fuel_prices (
//	    id           BIGSERIAL PRIMARY KEY,
//	    series       TEXT NOT NULL,
//	    price_date   DATE NOT NULL,
//	    price        DOUBLE PRECISION NOT NULL,
//	    unit         TEXT NOT NULL,
//	    raw_response BYTEA,
//	    fetched_at   TIMESTAMPTZ NOT NULL,
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    UNIQUE (series, price_date)
//	);
type Postgres struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgres creates a new PostgreSQL-backed store.
func NewPostgres(dsn string, logger zerolog.Logger) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Postgres{
		db:     db,
		logger: logger.With().Str("component", "database").Str("backend", "postgres").Logger(),
	}, nil
}

// Close closes the database connection.
func (d *Postgres) Close() error {
	return d.db.Close()
}

// Ping checks if the database connection is alive.
func (d *Postgres) Ping() error {
	return d.db.Ping()
}

// InsertPrice upserts a fuel price record keyed by (series, price_date).
func (d *Postgres) InsertPrice(ctx context.Context, price models.FuelPrice) error {
	query := `
		INSERT INTO fuel_prices (series, price_date, price, unit, raw_response, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (series, price_date)
		DO UPDATE SET
			price = EXCLUDED.price,
			raw_response = EXCLUDED.raw_response,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err := d.db.ExecContext(ctx, query,
		string(price.Series),
		price.PriceDate.Format("2006-01-02"),
		price.Price,
		price.Unit,
		price.RawResponse,
		price.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting price: %w", err)
	}

	d.logger.Debug().
		Str("series", string(price.Series)).
		Str("date", price.PriceDate.Format("2006-01-02")).
		Float64("price", price.Price).
		Msg("inserted price record")

	return nil
}

// ExistsForDate checks if a price record exists for the given series and date.
func (d *Postgres) ExistsForDate(ctx context.Context, series models.SeriesKind, date time.Time) (bool, error) {
	query := `
		SELECT COUNT(*) FROM fuel_prices
		WHERE series = $1 AND price_date = $2
	`

	var count int
	err := d.db.QueryRowContext(ctx, query,
		string(series),
		date.Format("2006-01-02"),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking existence: %w", err)
	}

	return count > 0, nil
}

// GetLatestPrice returns the most recent price record for a series.
func (d *Postgres) GetLatestPrice(ctx context.Context, series models.SeriesKind) (*models.FuelPrice, error) {
	query := `
		SELECT id, series, price_date, price, unit, raw_response, fetched_at, created_at
		FROM fuel_prices
		WHERE series = $1
		ORDER BY price_date DESC
		LIMIT 1
	`

	var price models.FuelPrice
	var seriesStr string
	var rawResponse []byte

	err := d.db.QueryRowContext(ctx, query, string(series)).Scan(
		&price.ID,
		&seriesStr,
		&price.PriceDate,
		&price.Price,
		&price.Unit,
		&rawResponse,
		&price.FetchedAt,
		&price.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest price: %w", err)
	}

	price.Series = models.SeriesKind(seriesStr)
	price.RawResponse = rawResponse

	return &price, nil
}

// GetLatestPriceDate returns the most recent price date across all series.
func (d *Postgres) GetLatestPriceDate(ctx context.Context) (*time.Time, error) {
	var date time.Time
	err := d.db.QueryRowContext(ctx,
		"SELECT price_date FROM fuel_prices ORDER BY price_date DESC LIMIT 1",
	).Scan(&date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest price date: %w", err)
	}
	return &date, nil
}

// GetTotalPricesCount returns the total number of price records in the database.
func (d *Postgres) GetTotalPricesCount(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fuel_prices").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting prices: %w", err)
	}
	return count, nil
}

// GetPricesCountBySeries returns the number of price records for a series.
func (d *Postgres) GetPricesCountBySeries(ctx context.Context, series models.SeriesKind) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM fuel_prices WHERE series = $1",
		string(series),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting prices for series: %w", err)
	}
	return count, nil
}
