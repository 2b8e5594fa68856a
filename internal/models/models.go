// Package models provides shared data types for the fuel price scraper.
package models

import (
	"sort"
	"time"
)

// SeriesKind identifies one of the published EIA price series tracked by this service.
type SeriesKind string

const (
	// SeriesGasoline is the weekly U.S. regular reformulated retail gasoline price series.
	SeriesGasoline SeriesKind = "gasoline"
	// SeriesCrude is the weekly WTI crude oil spot price series.
	SeriesCrude SeriesKind = "crude"
)

// Valid reports whether the kind names a known series.
func (k SeriesKind) Valid() bool {
	return k == SeriesGasoline || k == SeriesCrude
}

// PriceColumn returns the price column name for this series.
func (k SeriesKind) PriceColumn() string {
	switch k {
	case SeriesGasoline:
		return "gasoline_price"
	case SeriesCrude:
		return "crude_price"
	default:
		return "price"
	}
}

// Unit returns the price unit for this series.
func (k SeriesKind) Unit() string {
	switch k {
	case SeriesGasoline:
		return "USD/gal"
	case SeriesCrude:
		return "USD/bbl"
	default:
		return "USD"
	}
}

// PricePoint is a single observation in a price series.
type PricePoint struct {
	// Date is the period the price is valid for.
	Date time.Time
	// Price is the observed price in the series unit.
	Price float64
}

// PriceSeries is the two-column price table returned by a fetch: one row per
// valid observation, sorted ascending by date. A zero-row series still knows
// its column identity through Kind. FetchedAt and Raw are provenance for the
// storage layer, not table columns.
type PriceSeries struct {
	// Kind selects the price column name and unit.
	Kind SeriesKind
	// Points are the (date, price) rows, ascending by date.
	Points []PricePoint
	// FetchedAt is when the data was fetched.
	FetchedAt time.Time
	// Raw is the original API response body (JSON).
	Raw []byte
}

// Len returns the number of rows.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Empty reports whether the series has no rows.
func (s PriceSeries) Empty() bool {
	return len(s.Points) == 0
}

// Columns returns the date and price column names of the table.
func (s PriceSeries) Columns() (date, price string) {
	return "date", s.Kind.PriceColumn()
}

// SortByDate sorts the rows ascending by date.
func (s *PriceSeries) SortByDate() {
	sort.Slice(s.Points, func(i, j int) bool {
		return s.Points[i].Date.Before(s.Points[j].Date)
	})
}

// FuelPrice represents a stored fuel price record from the database.
type FuelPrice struct {
	ID          uint64
	Series      SeriesKind
	PriceDate   time.Time
	Price       float64
	Unit        string
	RawResponse []byte
	FetchedAt   time.Time
	CreatedAt   time.Time
}

// ProviderStatus holds the operational status of a series provider.
type ProviderStatus struct {
	Enabled            bool       `json:"enabled"`
	Series             SeriesKind `json:"series"`
	Unit               string     `json:"unit"`
	LastScrapeAt       *time.Time `json:"last_scrape_at"`
	LastScrapeSuccess  bool       `json:"last_scrape_success"`
	LastResponseTimeMs int64      `json:"last_response_time_ms"`
	LastPrice          *float64   `json:"last_price"`
	LastError          *string    `json:"last_error"`
	TotalRequests      int64      `json:"total_requests"`
	TotalErrors        int64      `json:"total_errors"`
	LastRawResponse    string     `json:"last_raw_response,omitempty"`
}

// StatusResponse is the response for the /status endpoint.
type StatusResponse struct {
	Status                string                    `json:"status"`
	UptimeSeconds         int64                     `json:"uptime_seconds"`
	SchedulerRunning      bool                      `json:"scheduler_running"`
	NextScrapeAt          *time.Time                `json:"next_scrape_at,omitempty"`
	LastScheduledScrapeAt *time.Time                `json:"last_scheduled_scrape_at,omitempty"`
	Providers             map[string]ProviderStatus `json:"providers"`
	Database              DatabaseStatus            `json:"database"`
}

// DatabaseStatus holds the database connection status.
type DatabaseStatus struct {
	Connected         bool       `json:"connected"`
	TotalPricesStored int64      `json:"total_prices_stored"`
	LatestPriceDate   *time.Time `json:"latest_price_date,omitempty"`
}
