// Package api provides the interface and types for fuel price API providers.
package api

import (
	"context"
	"time"

	"github.com/gasolytics/fuel-price-scraper/internal/models"
)

// Provider defines the interface for fuel price series providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Series returns the price series this provider fetches.
	Series() models.SeriesKind

	// Unit returns the price unit of the series (e.g., "USD/gal").
	Unit() string

	// FetchCurrentPrices fetches the default observation window up to today.
	FetchCurrentPrices(ctx context.Context) (models.PriceSeries, error)

	// FetchHistoricalPrices fetches prices for a date range (if supported).
	FetchHistoricalPrices(ctx context.Context, from, to time.Time) (models.PriceSeries, error)

	// SupportsBackfill returns true if the provider supports historical data.
	SupportsBackfill() bool

	// Probe checks that the upstream endpoint and credential are usable.
	Probe(ctx context.Context) bool
}
