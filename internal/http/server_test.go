package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The Prometheus metrics register on the default registry, so the server is
// constructed once for all endpoint tests.
func TestServer_Endpoints(t *testing.T) {
	s, db := newTestScraper(t)
	srv := NewServer(":0", s, nil, db, zerolog.Nop())

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	})

	t.Run("metrics", func(t *testing.T) {
		require.NotNil(t, srv.Metrics())
		srv.Metrics().RecordCurrentPrice("gasoline", "USD/gal", 3.28)
		srv.Metrics().RecordAPIRequest("eia-gasoline", "success", 0.2)
		srv.Metrics().RecordLastScrape("eia-gasoline", 1710482400)
		srv.Metrics().RecordDBOperation("insert", "success")
		srv.Metrics().RecordPricesStored("gasoline", 3)

		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "fuelscraper_current_price_usd")
		assert.Contains(t, body, `series="gasoline"`)
		assert.Contains(t, body, "fuelscraper_api_requests_total")
		assert.Contains(t, body, "fuelscraper_prices_stored_total")
	})
}
