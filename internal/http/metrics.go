// Package http provides HTTP server functionality for the fuel price scraper.
package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the scraper.
type Metrics struct {
	// API request metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Scrape metrics
	LastScrapeTimestamp *prometheus.GaugeVec
	CurrentPriceUSD     *prometheus.GaugeVec

	// Database metrics
	DBOperationsTotal *prometheus.CounterVec
	PricesStoredTotal *prometheus.GaugeVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		APIRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelscraper_api_requests_total",
				Help: "Total number of API requests by provider and status",
			},
			[]string{"provider", "status"},
		),
		APIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fuelscraper_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		LastScrapeTimestamp: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fuelscraper_last_scrape_timestamp",
				Help: "Timestamp of the last successful scrape",
			},
			[]string{"provider"},
		),
		CurrentPriceUSD: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fuelscraper_current_price_usd",
				Help: "Most recent fuel price in USD by series",
			},
			[]string{"series", "unit"},
		),
		DBOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelscraper_db_operations_total",
				Help: "Total number of database operations by type and status",
			},
			[]string{"operation", "status"},
		),
		PricesStoredTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fuelscraper_prices_stored_total",
				Help: "Total number of prices stored in database by series",
			},
			[]string{"series"},
		),
	}
}

// RecordAPIRequest records an API request metric.
func (m *Metrics) RecordAPIRequest(provider, status string, duration float64) {
	m.APIRequestsTotal.WithLabelValues(provider, status).Inc()
	m.APIRequestDuration.WithLabelValues(provider).Observe(duration)
}

// RecordLastScrape records the last successful scrape timestamp.
func (m *Metrics) RecordLastScrape(provider string, timestamp float64) {
	m.LastScrapeTimestamp.WithLabelValues(provider).Set(timestamp)
}

// RecordCurrentPrice records the most recent price for a series.
func (m *Metrics) RecordCurrentPrice(series, unit string, price float64) {
	m.CurrentPriceUSD.WithLabelValues(series, unit).Set(price)
}

// RecordDBOperation records a database operation metric.
func (m *Metrics) RecordDBOperation(operation, status string) {
	m.DBOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordPricesStored records the total number of prices stored for a series.
func (m *Metrics) RecordPricesStored(series string, count float64) {
	m.PricesStoredTotal.WithLabelValues(series).Set(count)
}
