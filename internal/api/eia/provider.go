package eia

import (
	"context"
	"time"

	"github.com/gasolytics/fuel-price-scraper/internal/api"
	"github.com/gasolytics/fuel-price-scraper/internal/models"
)

// SeriesProvider binds the EIA client to a single price series so the
// scraper can treat each series as its own provider.
type SeriesProvider struct {
	client *Client
	kind   models.SeriesKind

	// startDate is the first period fetched by FetchCurrentPrices; empty
	// means the client default.
	startDate string
}

var _ api.Provider = (*SeriesProvider)(nil)

// NewGasolineProvider returns a provider for the weekly gasoline series.
// startDate bounds scheduled fetches; empty means DefaultStartDate.
func NewGasolineProvider(c *Client, startDate string) *SeriesProvider {
	return &SeriesProvider{client: c, kind: models.SeriesGasoline, startDate: startDate}
}

// NewCrudeProvider returns a provider for the weekly WTI crude oil series.
func NewCrudeProvider(c *Client, startDate string) *SeriesProvider {
	return &SeriesProvider{client: c, kind: models.SeriesCrude, startDate: startDate}
}

// Name returns the provider identifier (e.g., "eia-gasoline").
func (p *SeriesProvider) Name() string {
	return ProviderName + "-" + string(p.kind)
}

// Series returns the price series this provider fetches.
func (p *SeriesProvider) Series() models.SeriesKind {
	return p.kind
}

// Unit returns the price unit of the series.
func (p *SeriesProvider) Unit() string {
	return p.kind.Unit()
}

// FetchCurrentPrices fetches the observation window from the configured
// start date through today.
func (p *SeriesProvider) FetchCurrentPrices(ctx context.Context) (models.PriceSeries, error) {
	return p.client.FetchSeries(ctx, p.kind, p.startDate, "")
}

// FetchHistoricalPrices fetches prices for a date range.
func (p *SeriesProvider) FetchHistoricalPrices(ctx context.Context, from, to time.Time) (models.PriceSeries, error) {
	return p.client.FetchSeries(ctx, p.kind, from.Format(dateFormat), to.Format(dateFormat))
}

// SupportsBackfill returns true as the EIA API serves arbitrary date ranges.
func (p *SeriesProvider) SupportsBackfill() bool {
	return true
}

// Probe runs the client's connectivity test.
func (p *SeriesProvider) Probe(ctx context.Context) bool {
	return p.client.TestConnection(ctx)
}
