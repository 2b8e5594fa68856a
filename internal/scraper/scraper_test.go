package scraper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasolytics/fuel-price-scraper/internal/api"
	"github.com/gasolytics/fuel-price-scraper/internal/database"
	"github.com/gasolytics/fuel-price-scraper/internal/models"
)

type fakeProvider struct {
	name     string
	kind     models.SeriesKind
	series   models.PriceSeries
	err      error
	backfill bool

	mu       sync.Mutex
	calls    int
	lastFrom time.Time
	lastTo   time.Time
}

var _ api.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) Name() string                   { return f.name }
func (f *fakeProvider) Series() models.SeriesKind      { return f.kind }
func (f *fakeProvider) Unit() string                   { return f.kind.Unit() }
func (f *fakeProvider) SupportsBackfill() bool         { return f.backfill }
func (f *fakeProvider) Probe(ctx context.Context) bool { return true }

func (f *fakeProvider) FetchCurrentPrices(ctx context.Context) (models.PriceSeries, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return models.PriceSeries{Kind: f.kind}, f.err
	}
	return f.series, nil
}

func (f *fakeProvider) FetchHistoricalPrices(ctx context.Context, from, to time.Time) (models.PriceSeries, error) {
	f.mu.Lock()
	f.calls++
	f.lastFrom, f.lastTo = from, to
	f.mu.Unlock()
	if f.err != nil {
		return models.PriceSeries{Kind: f.kind}, f.err
	}
	return f.series, nil
}

type fakeRecorder struct {
	mu          sync.Mutex
	apiRequests map[string]int
	lastScrapes map[string]float64
	prices      map[string]float64
	dbOps       map[string]int
	stored      map[string]float64
}

var _ PrometheusRecorder = (*fakeRecorder)(nil)

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		apiRequests: make(map[string]int),
		lastScrapes: make(map[string]float64),
		prices:      make(map[string]float64),
		dbOps:       make(map[string]int),
		stored:      make(map[string]float64),
	}
}

func (r *fakeRecorder) RecordAPIRequest(provider, status string, duration float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apiRequests[provider+"/"+status]++
}

func (r *fakeRecorder) RecordLastScrape(provider string, timestamp float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastScrapes[provider] = timestamp
}

func (r *fakeRecorder) RecordCurrentPrice(series, unit string, price float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices[series] = price
}

func (r *fakeRecorder) RecordDBOperation(operation, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbOps[operation+"/"+status]++
}

func (r *fakeRecorder) RecordPricesStored(series string, count float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored[series] = count
}

func newTestScraper(t *testing.T, storeRaw bool) (*Scraper, database.Store) {
	t.Helper()

	db, err := database.New(":memory:", zerolog.Nop())
	require.NoError(t, err, "failed to open in-memory database")
	t.Cleanup(func() { _ = db.Close() })

	return New(db, storeRaw, zerolog.Nop()), db
}

func gasolineSeries(fetchedAt time.Time) models.PriceSeries {
	return models.PriceSeries{
		Kind: models.SeriesGasoline,
		Points: []models.PricePoint{
			{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Price: 3.25},
			{Date: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), Price: 3.30},
			{Date: time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC), Price: 3.28},
		},
		FetchedAt: fetchedAt,
		Raw:       []byte(`{"data":[]}`),
	}
}

func TestScraper_RegisterProvider(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, true)

	s.RegisterProvider(&fakeProvider{name: "eia-gasoline", kind: models.SeriesGasoline})
	s.RegisterProvider(&fakeProvider{name: "eia-crude", kind: models.SeriesCrude})

	assert.Len(t, s.GetProviders(), 2)
	assert.NotNil(t, s.GetMetrics("eia-gasoline"))
	assert.Nil(t, s.GetMetrics("unknown"))
}

func TestScrapeProvider_StoresAllPoints(t *testing.T) {
	t.Parallel()

	s, db := newTestScraper(t, true)
	ctx := context.Background()

	provider := &fakeProvider{
		name:   "eia-gasoline",
		kind:   models.SeriesGasoline,
		series: gasolineSeries(time.Now()),
	}
	s.RegisterProvider(provider)

	require.NoError(t, s.ScrapeProvider(ctx, "eia-gasoline"))

	count, err := db.GetPricesCountBySeries(ctx, models.SeriesGasoline)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	latest, err := db.GetLatestPrice(ctx, models.SeriesGasoline)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-01-19", latest.PriceDate.Format("2006-01-02"))
	assert.Equal(t, 3.28, latest.Price)
	assert.Equal(t, "USD/gal", latest.Unit)
	assert.Equal(t, []byte(`{"data":[]}`), latest.RawResponse)

	snapshot := s.GetMetrics("eia-gasoline").GetSnapshot()
	assert.Equal(t, int64(1), snapshot.TotalRequests)
	assert.Equal(t, int64(0), snapshot.TotalErrors)
	assert.True(t, snapshot.LastScrapeSuccess)
	require.NotNil(t, snapshot.LastPrice)
	assert.Equal(t, 3.28, *snapshot.LastPrice)
	assert.NotEmpty(t, snapshot.LastRawResponse)
}

func TestScrapeProvider_SkipsExistingDates(t *testing.T) {
	t.Parallel()

	s, db := newTestScraper(t, true)
	ctx := context.Background()

	provider := &fakeProvider{
		name:   "eia-gasoline",
		kind:   models.SeriesGasoline,
		series: gasolineSeries(time.Now()),
	}
	s.RegisterProvider(provider)

	require.NoError(t, s.ScrapeProvider(ctx, "eia-gasoline"))
	require.NoError(t, s.ScrapeProvider(ctx, "eia-gasoline"))

	count, err := db.GetTotalPricesCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestScrapeProvider_WithoutRawResponse(t *testing.T) {
	t.Parallel()

	s, db := newTestScraper(t, false)
	ctx := context.Background()

	s.RegisterProvider(&fakeProvider{
		name:   "eia-gasoline",
		kind:   models.SeriesGasoline,
		series: gasolineSeries(time.Now()),
	})

	require.NoError(t, s.ScrapeProvider(ctx, "eia-gasoline"))

	latest, err := db.GetLatestPrice(ctx, models.SeriesGasoline)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Empty(t, latest.RawResponse)
}

func TestScrapeProvider_FetchError(t *testing.T) {
	t.Parallel()

	s, db := newTestScraper(t, true)
	ctx := context.Background()

	s.RegisterProvider(&fakeProvider{
		name: "eia-crude",
		kind: models.SeriesCrude,
		err:  errors.New("upstream down"),
	})

	err := s.ScrapeProvider(ctx, "eia-crude")
	require.Error(t, err)

	count, dbErr := db.GetTotalPricesCount(ctx)
	require.NoError(t, dbErr)
	assert.Equal(t, int64(0), count)

	snapshot := s.GetMetrics("eia-crude").GetSnapshot()
	assert.Equal(t, int64(1), snapshot.TotalRequests)
	assert.Equal(t, int64(1), snapshot.TotalErrors)
	assert.False(t, snapshot.LastScrapeSuccess)
	require.NotNil(t, snapshot.LastError)
	assert.Contains(t, *snapshot.LastError, "upstream down")
}

func TestScrapeProvider_UnknownProvider(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, true)

	// Unknown providers are logged, not fatal
	assert.NoError(t, s.ScrapeProvider(context.Background(), "nope"))
}

func TestScrapeAll_ContinuesOnFailure(t *testing.T) {
	t.Parallel()

	s, db := newTestScraper(t, true)
	ctx := context.Background()

	s.RegisterProvider(&fakeProvider{
		name: "eia-crude",
		kind: models.SeriesCrude,
		err:  errors.New("upstream down"),
	})
	s.RegisterProvider(&fakeProvider{
		name:   "eia-gasoline",
		kind:   models.SeriesGasoline,
		series: gasolineSeries(time.Now()),
	})

	require.NoError(t, s.ScrapeAll(ctx))

	count, err := db.GetPricesCountBySeries(ctx, models.SeriesGasoline)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestBackfill(t *testing.T) {
	t.Parallel()

	s, db := newTestScraper(t, true)
	ctx := context.Background()

	provider := &fakeProvider{
		name:     "eia-gasoline",
		kind:     models.SeriesGasoline,
		series:   gasolineSeries(time.Now()),
		backfill: true,
	}
	s.RegisterProvider(provider)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Backfill(ctx, "eia-gasoline", from, to))

	provider.mu.Lock()
	assert.Equal(t, from, provider.lastFrom)
	assert.Equal(t, to, provider.lastTo)
	provider.mu.Unlock()

	count, err := db.GetTotalPricesCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestBackfill_UnsupportedProvider(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, true)
	ctx := context.Background()

	provider := &fakeProvider{
		name:     "eia-gasoline",
		kind:     models.SeriesGasoline,
		series:   gasolineSeries(time.Now()),
		backfill: false,
	}
	s.RegisterProvider(provider)

	require.NoError(t, s.Backfill(ctx, "eia-gasoline", time.Now().AddDate(0, -1, 0), time.Now()))

	provider.mu.Lock()
	assert.Equal(t, 0, provider.calls)
	provider.mu.Unlock()
}

func TestBackfill_FetchError(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, true)

	s.RegisterProvider(&fakeProvider{
		name:     "eia-crude",
		kind:     models.SeriesCrude,
		err:      errors.New("upstream down"),
		backfill: true,
	})

	err := s.Backfill(context.Background(), "eia-crude", time.Now().AddDate(0, -1, 0), time.Now())
	assert.Error(t, err)
}

func TestHasScrapedToday(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, true)
	ctx := context.Background()

	provider := &fakeProvider{
		name:   "eia-gasoline",
		kind:   models.SeriesGasoline,
		series: gasolineSeries(time.Now()),
	}
	s.RegisterProvider(provider)

	scraped, err := s.HasScrapedToday(ctx, "eia-gasoline")
	require.NoError(t, err)
	assert.False(t, scraped)

	require.NoError(t, s.ScrapeProvider(ctx, "eia-gasoline"))

	scraped, err = s.HasScrapedToday(ctx, "eia-gasoline")
	require.NoError(t, err)
	assert.True(t, scraped)
}

func TestHasScrapedToday_StaleFetch(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, true)
	ctx := context.Background()

	// A fetch that ran two days ago does not count as today's
	provider := &fakeProvider{
		name:   "eia-gasoline",
		kind:   models.SeriesGasoline,
		series: gasolineSeries(time.Now().Add(-48 * time.Hour)),
	}
	s.RegisterProvider(provider)

	require.NoError(t, s.ScrapeProvider(ctx, "eia-gasoline"))

	scraped, err := s.HasScrapedToday(ctx, "eia-gasoline")
	require.NoError(t, err)
	assert.False(t, scraped)
}

func TestHasScrapedToday_UnknownProvider(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, true)

	scraped, err := s.HasScrapedToday(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, scraped)
}

func TestScrapeProvider_RecordsPrometheusMetrics(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, true)
	ctx := context.Background()

	s.RegisterProvider(&fakeProvider{
		name:   "eia-gasoline",
		kind:   models.SeriesGasoline,
		series: gasolineSeries(time.Now()),
	})

	rec := newFakeRecorder()
	s.SetPrometheusMetrics(rec)

	require.NoError(t, s.ScrapeProvider(ctx, "eia-gasoline"))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.apiRequests["eia-gasoline/success"])
	assert.NotZero(t, rec.lastScrapes["eia-gasoline"])
	assert.Equal(t, 3.28, rec.prices["gasoline"])
	assert.Equal(t, 3, rec.dbOps["insert/success"])
	assert.Equal(t, float64(3), rec.stored["gasoline"])
}

func TestScrapeProvider_RecordsPrometheusFailure(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, true)

	s.RegisterProvider(&fakeProvider{
		name: "eia-crude",
		kind: models.SeriesCrude,
		err:  errors.New("upstream down"),
	})

	rec := newFakeRecorder()
	s.SetPrometheusMetrics(rec)

	require.Error(t, s.ScrapeProvider(context.Background(), "eia-crude"))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.apiRequests["eia-crude/error"])
	assert.Zero(t, rec.lastScrapes["eia-crude"])
}
