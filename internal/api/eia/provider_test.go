package eia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasolytics/fuel-price-scraper/internal/models"
)

func TestSeriesProvider_Identity(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "http://unused")

	gasoline := NewGasolineProvider(c, "")
	assert.Equal(t, "eia-gasoline", gasoline.Name())
	assert.Equal(t, models.SeriesGasoline, gasoline.Series())
	assert.Equal(t, "USD/gal", gasoline.Unit())
	assert.True(t, gasoline.SupportsBackfill())

	crude := NewCrudeProvider(c, "")
	assert.Equal(t, "eia-crude", crude.Name())
	assert.Equal(t, models.SeriesCrude, crude.Series())
	assert.Equal(t, "USD/bbl", crude.Unit())
	assert.True(t, crude.SupportsBackfill())
}

func TestSeriesProvider_FetchCurrentPrices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		// Configured start date wins; end date falls back to the clock
		assert.Equal(t, "2024-06-01", q.Get("start"))
		assert.Equal(t, "2024-03-15", q.Get("end"))

		_, _ = w.Write([]byte(`{"data": [{"period": "2024-06-07", "value": "3.41"}]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	p := NewGasolineProvider(c, "2024-06-01")

	series, err := p.FetchCurrentPrices(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, series.Len())
	assert.Equal(t, models.SeriesGasoline, series.Kind)
}

func TestSeriesProvider_FetchHistoricalPrices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2023-02-01", q.Get("start"))
		assert.Equal(t, "2023-03-01", q.Get("end"))

		_, _ = w.Write([]byte(`{"data": [{"period": "2023-02-03", "value": 76.45}]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	p := NewCrudeProvider(c, "")

	from := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	series, err := p.FetchHistoricalPrices(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1, series.Len())
	assert.Equal(t, 76.45, series.Points[0].Price)
}

func TestSeriesProvider_Probe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	p := NewGasolineProvider(c, "")

	assert.True(t, p.Probe(context.Background()))
}
