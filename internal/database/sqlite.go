package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/gasolytics/fuel-price-scraper/internal/models"
)

var _ Store = (*SQLite)(nil)

// SQLite implements Store on an embedded SQLite database. It is the default
// backend when no PostgreSQL DSN is configured, so the scraper runs without
// any external services. The schema is created on open.
//
// Dates are stored as ISO-8601 TEXT and timestamps as unix seconds, because
// the driver scans SQLite TEXT columns as strings rather than time.Time.
type SQLite struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLite creates a new SQLite-backed store at the given file path.
// The special path ":memory:" creates a transient in-memory database.
func NewSQLite(path string, logger zerolog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database file: %w", err)
	}

	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY errors under concurrent scrapes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLite{
		db:     db,
		logger: logger.With().Str("component", "database").Str("backend", "sqlite").Logger(),
	}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return s, nil
}

func (d *SQLite) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS fuel_prices (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			series       TEXT NOT NULL,
			price_date   TEXT NOT NULL,
			price        REAL NOT NULL,
			unit         TEXT NOT NULL,
			raw_response BLOB,
			fetched_at   INTEGER NOT NULL,
			created_at   INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
			UNIQUE (series, price_date)
		);
		CREATE INDEX IF NOT EXISTS idx_fuel_prices_series_date
			ON fuel_prices (series, price_date DESC);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("creating fuel_prices table: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *SQLite) Close() error {
	return d.db.Close()
}

// Ping checks if the database connection is alive.
func (d *SQLite) Ping() error {
	return d.db.Ping()
}

// InsertPrice upserts a fuel price record keyed by (series, price_date).
func (d *SQLite) InsertPrice(ctx context.Context, price models.FuelPrice) error {
	query := `
		INSERT INTO fuel_prices (series, price_date, price, unit, raw_response, fetched_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (series, price_date)
		DO UPDATE SET
			price = excluded.price,
			raw_response = excluded.raw_response,
			fetched_at = excluded.fetched_at
	`

	_, err := d.db.ExecContext(ctx, query,
		string(price.Series),
		price.PriceDate.Format("2006-01-02"),
		price.Price,
		price.Unit,
		price.RawResponse,
		price.FetchedAt.Unix(),
		time.Now().Unix(),
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
func (d *SQLite) ExistsForDate(ctx context.Context, series models.SeriesKind, date time.Time) (bool, error) {
	query := `
		SELECT COUNT(*) FROM fuel_prices
		WHERE series = ? AND price_date = ?
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
func (d *SQLite) GetLatestPrice(ctx context.Context, series models.SeriesKind) (*models.FuelPrice, error) {
	query := `
		SELECT id, series, price_date, price, unit, raw_response, fetched_at, created_at
		FROM fuel_prices
		WHERE series = ?
		ORDER BY price_date DESC
		LIMIT 1
	`

	var price models.FuelPrice
	var seriesStr, dateStr string
	var rawResponse []byte
	var fetchedAt, createdAt int64

	err := d.db.QueryRowContext(ctx, query, string(series)).Scan(
		&price.ID,
		&seriesStr,
		&dateStr,
		&price.Price,
		&price.Unit,
		&rawResponse,
		&fetchedAt,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest price: %w", err)
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing stored price date %q: %w", dateStr, err)
	}

	price.Series = models.SeriesKind(seriesStr)
	price.PriceDate = date
	price.RawResponse = rawResponse
	price.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	price.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &price, nil
}

// GetLatestPriceDate returns the most recent price date across all series.
func (d *SQLite) GetLatestPriceDate(ctx context.Context) (*time.Time, error) {
	var dateStr string
	err := d.db.QueryRowContext(ctx,
		"SELECT price_date FROM fuel_prices ORDER BY price_date DESC LIMIT 1",
	).Scan(&dateStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest price date: %w", err)
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing stored price date %q: %w", dateStr, err)
	}

	return &date, nil
}

// GetTotalPricesCount returns the total number of price records in the database.
func (d *SQLite) GetTotalPricesCount(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fuel_prices").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting prices: %w", err)
	}
	return count, nil
}

// GetPricesCountBySeries returns the number of price records for a series.
func (d *SQLite) GetPricesCountBySeries(ctx context.Context, series models.SeriesKind) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM fuel_prices WHERE series = ?",
		string(series),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting prices for series: %w", err)
	}
	return count, nil
}
