// Package eia provides an API client for the U.S. Energy Information
// Administration open data service (https://www.eia.gov/opendata/).
package eia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gasolytics/fuel-price-scraper/internal/models"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "eia"
	// DefaultBaseURL is the root of the EIA API v2.
	DefaultBaseURL = "https://api.eia.gov/v2"
	// gasolineEndpoint is the data path for gasoline product spot/retail prices.
	gasolineEndpoint = "/petroleum/pri/gnd/data/"
	// crudeEndpoint is the data path for crude oil spot prices.
	crudeEndpoint = "/petroleum/pri/spt/data/"
	// GasolineSeriesID is the upstream catalog identifier for weekly U.S.
	// regular reformulated retail gasoline prices (dollars per gallon).
	GasolineSeriesID = "PET.EER_EPMRR_PF4_RGC_DPG.W"
	// CrudeSeriesID is the upstream catalog identifier for weekly WTI crude
	// oil spot prices (dollars per barrel).
	CrudeSeriesID = "PET.RWTC.W"
	// DefaultStartDate is the first period fetched when no start date is given.
	DefaultStartDate = "2023-01-01"

	// dateFormat is the ISO date layout used by the EIA API.
	dateFormat = "2006-01-02"
	// maxLength is the fixed page-size ceiling. There is no pagination loop;
	// observations beyond this count are truncated by the upstream.
	maxLength = 5000
	// probeStart and probeEnd bound the one-week connectivity probe window.
	probeStart = "2024-01-01"
	probeEnd   = "2024-01-07"

	defaultTimeout = 30 * time.Second
	probeTimeout   = 10 * time.Second
)

var (
	// ErrMissingAPIKey is returned by New when no API key is resolvable.
	ErrMissingAPIKey = errors.New("EIA API key is required (get one free at https://www.eia.gov/opendata/)")
	// ErrTransport marks request execution failures: network errors and
	// non-2xx responses.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedResponse marks payloads that cannot be decoded into a
	// price table: invalid JSON, unparsable periods, non-numeric values.
	ErrMalformedResponse = errors.New("malformed response")
)

// Config holds configuration for the EIA API client.
type Config struct {
	// APIKey authenticates every request. Required.
	APIKey string
	// BaseURL overrides the API root (tests); defaults to DefaultBaseURL.
	BaseURL string
	// Timeout applies to every outbound call; defaults to 30s.
	Timeout time.Duration
}

// apiResponse represents the JSON response from the EIA data endpoints.
type apiResponse struct {
	Data []observation `json:"data"`
}

// observation is a single row of the data array. Value arrives as a numeric
// string or a bare JSON number depending on the series.
type observation struct {
	Period string `json:"period"`
	Value  any    `json:"value"`
}

// Client fetches weekly price series from the EIA API. It holds no state
// beyond the immutable configuration; calls are independent and safe for
// concurrent use.
type Client struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger

	// now supplies "today" for the per-call end date default.
	now func() time.Time
}

// New creates a new EIA client. The API key is a hard precondition: without
// one, New fails before any network call is attempted.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With().Str("provider", ProviderName).Logger(),
		now:    time.Now,
	}, nil
}

// seriesRoute maps a series kind to its endpoint path and catalog identifier.
// Gasoline and crude live under different endpoint families despite taking
// near-identical parameters.
func seriesRoute(kind models.SeriesKind) (endpoint, seriesID string, err error) {
	switch kind {
	case models.SeriesGasoline:
		return gasolineEndpoint, GasolineSeriesID, nil
	case models.SeriesCrude:
		return crudeEndpoint, CrudeSeriesID, nil
	default:
		return "", "", fmt.Errorf("unknown series kind %q", kind)
	}
}

// FetchSeries fetches one weekly price series for the date range and returns
// it as a two-column table sorted ascending by date.
//
// An empty or absent data array is not an error: the result is an empty table
// with a nil error. Transport failures wrap ErrTransport; undecodable
// payloads, unparsable periods and non-numeric values wrap
// ErrMalformedResponse. Callers that prefer the degrade-to-empty contract
// should use FetchGasolinePrices or FetchCrudeOilPrices instead.
//
// startDate defaults to DefaultStartDate and endDate to the current date,
// both in YYYY-MM-DD; the end date is computed fresh on every call.
func (c *Client) FetchSeries(ctx context.Context, kind models.SeriesKind, startDate, endDate string) (models.PriceSeries, error) {
	empty := models.PriceSeries{Kind: kind}

	endpoint, seriesID, err := seriesRoute(kind)
	if err != nil {
		return empty, err
	}

	if startDate == "" {
		startDate = DefaultStartDate
	}
	if endDate == "" {
		endDate = c.now().Format(dateFormat)
	}

	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	q.Set("frequency", "weekly")
	q.Set("data[0]", "value")
	q.Set("facets[series][]", seriesID)
	q.Set("start", startDate)
	q.Set("end", endDate)
	q.Set("sort[0][column]", "period")
	q.Set("sort[0][direction]", "desc")
	q.Set("offset", "0")
	q.Set("length", strconv.Itoa(maxLength))

	apiURL := c.cfg.BaseURL + endpoint + "?" + q.Encode()

	c.logger.Debug().
		Str("series", string(kind)).
		Str("seriesId", seriesID).
		Str("start", startDate).
		Str("end", endDate).
		Msg("fetching prices from EIA")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return empty, fmt.Errorf("%w: creating request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return empty, fmt.Errorf("%w: executing request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return empty, fmt.Errorf("%w: unexpected status code %d: %s", ErrTransport, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("%w: reading response body: %w", ErrTransport, err)
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return empty, fmt.Errorf("%w: parsing response JSON: %w", ErrMalformedResponse, err)
	}

	series := models.PriceSeries{
		Kind:      kind,
		FetchedAt: c.now(),
		Raw:       body,
	}

	if len(payload.Data) == 0 {
		c.logger.Info().
			Str("series", string(kind)).
			Str("start", startDate).
			Str("end", endDate).
			Msg("no observations in response")
		return series, nil
	}

	points := make([]models.PricePoint, 0, len(payload.Data))
	for _, row := range payload.Data {
		date, err := time.Parse(dateFormat, row.Period)
		if err != nil {
			return empty, fmt.Errorf("%w: parsing period %q: %w", ErrMalformedResponse, row.Period, err)
		}

		price, err := parsePrice(row.Value)
		if err != nil {
			return empty, fmt.Errorf("%w: period %s: %w", ErrMalformedResponse, row.Period, err)
		}

		points = append(points, models.PricePoint{Date: date, Price: price})
	}

	series.Points = points
	// The request asks for descending period order; the table contract is
	// ascending.
	series.SortByDate()

	c.logger.Info().
		Str("series", string(kind)).
		Int("count", series.Len()).
		Str("start", startDate).
		Str("end", endDate).
		Msg("fetched prices from EIA")

	return series, nil
}

// FetchGasolinePrices fetches weekly gasoline prices, degrading to an empty
// table on any failure. The error is logged as a diagnostic only: callers of
// this surface cannot distinguish "no data in range" from "request failed"
// without inspecting logs.
func (c *Client) FetchGasolinePrices(ctx context.Context, startDate, endDate string) models.PriceSeries {
	return c.fetchLenient(ctx, models.SeriesGasoline, startDate, endDate)
}

// FetchCrudeOilPrices fetches weekly WTI crude oil spot prices with the same
// degrade-to-empty contract as FetchGasolinePrices.
func (c *Client) FetchCrudeOilPrices(ctx context.Context, startDate, endDate string) models.PriceSeries {
	return c.fetchLenient(ctx, models.SeriesCrude, startDate, endDate)
}

func (c *Client) fetchLenient(ctx context.Context, kind models.SeriesKind, startDate, endDate string) models.PriceSeries {
	series, err := c.FetchSeries(ctx, kind, startDate, endDate)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("series", string(kind)).
			Msg("fetch failed, returning empty table")
		return models.PriceSeries{Kind: kind}
	}
	return series
}

// TestConnection issues a minimal one-week probe against the crude oil
// endpoint and reports whether the API and credential are usable. It returns
// true iff the response status is 2xx, regardless of payload content; any
// other status or error (timeout, network failure) collapses to false. The
// probe is bounded to 10 seconds.
func (c *Client) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	// The probe sends the minimal parameter set: no sort or offset keys.
	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	q.Set("frequency", "weekly")
	q.Set("data[0]", "value")
	q.Set("facets[series][]", CrudeSeriesID)
	q.Set("start", probeStart)
	q.Set("end", probeEnd)
	q.Set("length", "1")

	apiURL := c.cfg.BaseURL + crudeEndpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("connection test failed")
		return false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("connection test failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Msg("connection test failed")
		return false
	}

	c.logger.Info().Msg("connection test successful")
	return true
}

// parsePrice coerces the value field to a float64. A null or non-numeric
// value is an error; no row survives coercion with an unusable price.
func parsePrice(v any) (float64, error) {
	switch n := v.(type) {
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q", n)
		}
		return f, nil
	case float64:
		return n, nil
	case nil:
		return 0, errors.New("null value")
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}
