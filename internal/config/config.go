// Package config provides configuration structures and loading for the fuel price scraper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the YAML config file is looked up unless
// CONFIG_PATH says otherwise.
const DefaultConfigPath = "config/config.yaml"

// Config holds all configuration for the fuel price scraper.
type Config struct {
	// EIA API key
	EIAAPIKey string
	// EIA API base URL override (empty means the production API)
	EIABaseURL string
	// Database connection string: postgres:// selects PostgreSQL, anything
	// else is a SQLite file path
	DatabaseDSN string
	// Log level (debug, info, warn, error)
	LogLevel string
	// Log format (json, console)
	LogFormat string
	// Store raw API responses in database
	StoreRawResponse bool
	// HTTP server address
	HTTPAddr string
	// First period fetched by scheduled scrapes (YYYY-MM-DD; empty means
	// the client default)
	StartDate string
	// Scrape hour (0-23)
	ScrapeHour int
	// Enabled series
	Series []string
	// Backfill settings
	Backfill BackfillConfig
}

// BackfillConfig holds configuration for backfilling historical data.
type BackfillConfig struct {
	// Series to backfill when --series is not given
	Series string
}

// fileConfig is the YAML shape of the config file. The api_keys.eia_api_key
// path is a fixed contract. A missing file or key is tolerated here; the
// EIA client constructor is the hard gate.
type fileConfig struct {
	APIKeys struct {
		EIAAPIKey string `yaml:"eia_api_key"`
	} `yaml:"api_keys"`
	EIA struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"eia"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Scraper struct {
		ScrapeHour       *int     `yaml:"scrape_hour"`
		StartDate        string   `yaml:"start_date"`
		Series           []string `yaml:"series"`
		StoreRawResponse *bool    `yaml:"store_raw_response"`
	} `yaml:"scraper"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		EIAAPIKey:        "",
		EIABaseURL:       "",
		DatabaseDSN:      "fuel_prices.db",
		LogLevel:         "info",
		LogFormat:        "json",
		StoreRawResponse: true,
		HTTPAddr:         ":8080",
		StartDate:        "",
		ScrapeHour:       6,
		Series:           []string{"gasoline", "crude"},
		Backfill: BackfillConfig{
			Series: "gasoline",
		},
	}
}

// LoadFromFile merges values from a YAML config file. A missing file is not
// an error; an unreadable or unparsable one is.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fc.APIKeys.EIAAPIKey != "" {
		c.EIAAPIKey = fc.APIKeys.EIAAPIKey
	}
	if fc.EIA.BaseURL != "" {
		c.EIABaseURL = fc.EIA.BaseURL
	}
	if fc.Database.DSN != "" {
		c.DatabaseDSN = fc.Database.DSN
	}
	if fc.Log.Level != "" {
		c.LogLevel = fc.Log.Level
	}
	if fc.Log.Format != "" {
		c.LogFormat = fc.Log.Format
	}
	if fc.HTTP.Addr != "" {
		c.HTTPAddr = fc.HTTP.Addr
	}
	if fc.Scraper.ScrapeHour != nil && *fc.Scraper.ScrapeHour >= 0 && *fc.Scraper.ScrapeHour <= 23 {
		c.ScrapeHour = *fc.Scraper.ScrapeHour
	}
	if fc.Scraper.StartDate != "" {
		c.StartDate = fc.Scraper.StartDate
	}
	if len(fc.Scraper.Series) > 0 {
		c.Series = fc.Scraper.Series
	}
	if fc.Scraper.StoreRawResponse != nil {
		c.StoreRawResponse = *fc.Scraper.StoreRawResponse
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("EIA_API_KEY"); v != "" {
		c.EIAAPIKey = v
	}
	if v := os.Getenv("EIA_BASE_URL"); v != "" {
		c.EIABaseURL = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.DatabaseDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("STORE_RAW_RESPONSE"); v != "" {
		c.StoreRawResponse = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("START_DATE"); v != "" {
		c.StartDate = v
	}
	if v := os.Getenv("SCRAPE_HOUR"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 && i <= 23 {
			c.ScrapeHour = i
		}
	}
	if v := os.Getenv("SERIES"); v != "" {
		c.Series = strings.Split(v, ",")
	}
}

// ConfigPath returns the config file path from CONFIG_PATH or the default.
func ConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultConfigPath
}
