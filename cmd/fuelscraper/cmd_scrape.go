package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gasolytics/fuel-price-scraper/internal/api/eia"
	"github.com/gasolytics/fuel-price-scraper/internal/database"
	"github.com/gasolytics/fuel-price-scraper/internal/scraper"
)

func scrapeCmd() *cobra.Command {
	var series string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run a one-time scrape",
		Long:  "Runs a one-time scrape of the specified series. Useful for testing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			if cfg.DatabaseDSN == "" {
				return fmt.Errorf("--database-dsn is required")
			}

			// Parse series list
			seriesList := strings.Split(series, ",")
			for i := range seriesList {
				seriesList[i] = strings.TrimSpace(seriesList[i])
			}

			logger.Info().
				Strs("series", seriesList).
				Msg("running one-time scrape")

			// Create EIA client
			client, err := eia.New(eia.Config{APIKey: cfg.EIAAPIKey, BaseURL: cfg.EIABaseURL}, logger)
			if err != nil {
				return err
			}

			// Connect to database
			db, err := database.New(cfg.DatabaseDSN, logger)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer db.Close()

			// Create scraper
			s := scraper.New(db, cfg.StoreRawResponse, logger)

			// Register providers
			for _, p := range seriesList {
				switch p {
				case "gasoline":
					s.RegisterProvider(eia.NewGasolineProvider(client, cfg.StartDate))
				case "crude":
					s.RegisterProvider(eia.NewCrudeProvider(client, cfg.StartDate))
				default:
					logger.Warn().Str("series", p).Msg("unknown series, skipping")
				}
			}

			// Run scrape
			ctx := context.Background()
			if err := s.ScrapeAll(ctx); err != nil {
				return fmt.Errorf("scraping: %w", err)
			}

			logger.Info().Msg("scrape completed")
			return nil
		},
	}

	cmd.Flags().StringVar(&series, "series", strings.Join(cfg.Series, ","), "Comma-separated list of series (gasoline, crude)")

	return cmd
}
