// Package scraper provides orchestration for fetching fuel prices from providers.
package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gasolytics/fuel-price-scraper/internal/api"
	"github.com/gasolytics/fuel-price-scraper/internal/database"
	"github.com/gasolytics/fuel-price-scraper/internal/models"
)

// PrometheusRecorder receives scrape and storage outcomes for export. It is
// implemented by the HTTP server's metrics registry.
type PrometheusRecorder interface {
	RecordAPIRequest(provider, status string, duration float64)
	RecordLastScrape(provider string, timestamp float64)
	RecordCurrentPrice(series, unit string, price float64)
	RecordDBOperation(operation, status string)
	RecordPricesStored(series string, count float64)
}

// Metrics holds scraping metrics for a provider.
type Metrics struct {
	mu                sync.RWMutex
	TotalRequests     int64
	TotalErrors       int64
	LastScrapeAt      *time.Time
	LastScrapeSuccess bool
	LastResponseTime  time.Duration
	LastPrice         *float64
	LastError         *string
	LastRawResponse   string
}

// GetSnapshot returns a thread-safe snapshot of the metrics.
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		TotalRequests:     m.TotalRequests,
		TotalErrors:       m.TotalErrors,
		LastScrapeAt:      m.LastScrapeAt,
		LastScrapeSuccess: m.LastScrapeSuccess,
		LastResponseTime:  m.LastResponseTime,
		LastPrice:         m.LastPrice,
		LastError:         m.LastError,
		LastRawResponse:   m.LastRawResponse,
	}
}

// MetricsSnapshot is a thread-safe copy of Metrics data.
type MetricsSnapshot struct {
	TotalRequests     int64
	TotalErrors       int64
	LastScrapeAt      *time.Time
	LastScrapeSuccess bool
	LastResponseTime  time.Duration
	LastPrice         *float64
	LastError         *string
	LastRawResponse   string
}

// Scraper orchestrates fetching from multiple providers.
type Scraper struct {
	db               database.Store
	providers        map[string]api.Provider
	providerMetrics  map[string]*Metrics
	prom             PrometheusRecorder
	storeRawResponse bool
	logger           zerolog.Logger
	mu               sync.RWMutex
}

// New creates a new Scraper.
func New(db database.Store, storeRawResponse bool, logger zerolog.Logger) *Scraper {
	return &Scraper{
		db:               db,
		providers:        make(map[string]api.Provider),
		providerMetrics:  make(map[string]*Metrics),
		storeRawResponse: storeRawResponse,
		logger:           logger.With().Str("component", "scraper").Logger(),
	}
}

// SetPrometheusMetrics attaches a Prometheus recorder for scrape outcomes.
func (s *Scraper) SetPrometheusMetrics(rec PrometheusRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prom = rec
}

// RegisterProvider registers a provider with the scraper.
func (s *Scraper) RegisterProvider(provider api.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[provider.Name()] = provider
	s.providerMetrics[provider.Name()] = &Metrics{}
}

// GetProviders returns all registered providers.
func (s *Scraper) GetProviders() []api.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	providers := make([]api.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		providers = append(providers, p)
	}
	return providers
}

// GetMetrics returns the metrics for a provider.
func (s *Scraper) GetMetrics(providerName string) *Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.providerMetrics[providerName]
}

// ScrapeAll fetches current prices from all registered providers.
func (s *Scraper) ScrapeAll(ctx context.Context) error {
	s.mu.RLock()
	providers := make([]api.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		providers = append(providers, p)
	}
	s.mu.RUnlock()

	for _, provider := range providers {
		if err := s.ScrapeProvider(ctx, provider.Name()); err != nil {
			s.logger.Error().
				Err(err).
				Str("provider", provider.Name()).
				Msg("failed to scrape provider")
		}
	}

	return nil
}

// ScrapeProvider fetches current prices from a specific provider and stores
// every observation that is not already in the database.
func (s *Scraper) ScrapeProvider(ctx context.Context, providerName string) error {
	s.mu.RLock()
	provider, ok := s.providers[providerName]
	metrics := s.providerMetrics[providerName]
	prom := s.prom
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn().Str("provider", providerName).Msg("provider not found")
		return nil
	}

	s.logger.Info().Str("provider", providerName).Msg("scraping provider")

	start := time.Now()
	metrics.mu.Lock()
	metrics.TotalRequests++
	metrics.mu.Unlock()

	series, err := provider.FetchCurrentPrices(ctx)
	duration := time.Since(start)

	now := time.Now()
	metrics.mu.Lock()
	metrics.LastScrapeAt = &now
	metrics.LastResponseTime = duration
	if err != nil {
		metrics.TotalErrors++
		metrics.LastScrapeSuccess = false
		errStr := err.Error()
		metrics.LastError = &errStr
	} else {
		metrics.LastScrapeSuccess = true
		metrics.LastError = nil
		if !series.Empty() {
			latest := series.Points[series.Len()-1]
			metrics.LastPrice = &latest.Price
		}
		if len(series.Raw) > 0 {
			// Store a truncated version for status endpoint
			rawResp := string(series.Raw)
			if len(rawResp) > 10000 {
				rawResp = rawResp[:10000] + "..."
			}
			metrics.LastRawResponse = rawResp
		}
	}
	metrics.mu.Unlock()

	if prom != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		prom.RecordAPIRequest(providerName, status, duration.Seconds())
	}

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("provider", providerName).
			Dur("duration", duration).
			Msg("failed to fetch prices")
		return err
	}

	s.logger.Info().
		Str("provider", providerName).
		Int("count", series.Len()).
		Dur("duration", duration).
		Msg("fetched prices")

	if prom != nil {
		prom.RecordLastScrape(providerName, float64(now.Unix()))
		if !series.Empty() {
			latest := series.Points[series.Len()-1]
			prom.RecordCurrentPrice(string(series.Kind), series.Kind.Unit(), latest.Price)
		}
	}

	inserted, skipped := s.storeSeries(ctx, provider, series)

	s.logger.Info().
		Str("provider", providerName).
		Int("inserted", inserted).
		Int("skipped", skipped).
		Msg("stored prices")

	s.updateStoredCount(ctx, provider, prom)

	return nil
}

// Backfill fetches historical data from a provider for a date range.
func (s *Scraper) Backfill(ctx context.Context, providerName string, from, to time.Time) error {
	s.mu.RLock()
	provider, ok := s.providers[providerName]
	prom := s.prom
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn().Str("provider", providerName).Msg("provider not found")
		return nil
	}

	if !provider.SupportsBackfill() {
		s.logger.Warn().
			Str("provider", providerName).
			Msg("provider does not support backfill")
		return nil
	}

	s.logger.Info().
		Str("provider", providerName).
		Str("from", from.Format("2006-01-02")).
		Str("to", to.Format("2006-01-02")).
		Msg("starting backfill")

	// One request covers the whole range, the API supports date-bounded queries
	series, err := provider.FetchHistoricalPrices(ctx, from, to)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("provider", providerName).
		Int("count", series.Len()).
		Msg("fetched historical prices")

	inserted, skipped := s.storeSeries(ctx, provider, series)

	s.logger.Info().
		Str("provider", providerName).
		Int("inserted", inserted).
		Int("skipped", skipped).
		Msg("backfill completed")

	s.updateStoredCount(ctx, provider, prom)

	return nil
}

// storeSeries writes each observation of a series to the database, skipping
// dates that already have a record.
func (s *Scraper) storeSeries(ctx context.Context, provider api.Provider, series models.PriceSeries) (inserted, skipped int) {
	s.mu.RLock()
	prom := s.prom
	s.mu.RUnlock()

	var raw []byte
	if s.storeRawResponse {
		raw = series.Raw
	}

	for _, point := range series.Points {
		exists, err := s.db.ExistsForDate(ctx, series.Kind, point.Date)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("series", string(series.Kind)).
				Str("date", point.Date.Format("2006-01-02")).
				Msg("failed to check existence")
			if prom != nil {
				prom.RecordDBOperation("exists_check", "error")
			}
			continue
		}

		if exists {
			skipped++
			s.logger.Debug().
				Str("series", string(series.Kind)).
				Str("date", point.Date.Format("2006-01-02")).
				Msg("price already exists, skipping")
			continue
		}

		price := models.FuelPrice{
			Series:      series.Kind,
			PriceDate:   point.Date,
			Price:       point.Price,
			Unit:        provider.Unit(),
			RawResponse: raw,
			FetchedAt:   series.FetchedAt,
		}

		if err := s.db.InsertPrice(ctx, price); err != nil {
			s.logger.Error().
				Err(err).
				Str("series", string(series.Kind)).
				Str("date", point.Date.Format("2006-01-02")).
				Msg("failed to insert price")
			if prom != nil {
				prom.RecordDBOperation("insert", "error")
			}
			continue
		}

		inserted++
		if prom != nil {
			prom.RecordDBOperation("insert", "success")
		}
	}

	return inserted, skipped
}

func (s *Scraper) updateStoredCount(ctx context.Context, provider api.Provider, prom PrometheusRecorder) {
	if prom == nil {
		return
	}
	count, err := s.db.GetPricesCountBySeries(ctx, provider.Series())
	if err != nil {
		return
	}
	prom.RecordPricesStored(string(provider.Series()), float64(count))
}

// HasScrapedToday checks if the provider's series was already fetched today.
// Weekly observations are dated by period rather than fetch day, so the
// stored FetchedAt timestamp decides.
func (s *Scraper) HasScrapedToday(ctx context.Context, providerName string) (bool, error) {
	s.mu.RLock()
	provider, ok := s.providers[providerName]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}

	latest, err := s.db.GetLatestPrice(ctx, provider.Series())
	if err != nil {
		return false, err
	}
	if latest == nil {
		return false, nil
	}

	y1, m1, d1 := latest.FetchedAt.UTC().Date()
	y2, m2, d2 := time.Now().UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2, nil
}
