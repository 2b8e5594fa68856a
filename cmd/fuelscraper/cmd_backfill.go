package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gasolytics/fuel-price-scraper/internal/api"
	"github.com/gasolytics/fuel-price-scraper/internal/api/eia"
	"github.com/gasolytics/fuel-price-scraper/internal/database"
	"github.com/gasolytics/fuel-price-scraper/internal/scraper"
)

func backfillCmd() *cobra.Command {
	var fromStr, toStr string
	var series string

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Backfill historical data",
		Long:  "Backfills historical price data for one series over a date range.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			if cfg.DatabaseDSN == "" {
				return fmt.Errorf("--database-dsn is required")
			}

			if fromStr == "" {
				return fmt.Errorf("--from is required")
			}

			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fmt.Errorf("parsing --from date: %w", err)
			}

			to := time.Now()
			if toStr != "" {
				to, err = time.Parse("2006-01-02", toStr)
				if err != nil {
					return fmt.Errorf("parsing --to date: %w", err)
				}
			}

			logger.Info().
				Str("series", series).
				Str("from", from.Format("2006-01-02")).
				Str("to", to.Format("2006-01-02")).
				Msg("starting backfill")

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

			// Register provider
			var provider api.Provider
			switch series {
			case "gasoline":
				provider = eia.NewGasolineProvider(client, cfg.StartDate)
			case "crude":
				provider = eia.NewCrudeProvider(client, cfg.StartDate)
			default:
				return fmt.Errorf("unknown series: %s", series)
			}
			s.RegisterProvider(provider)

			// Run backfill
			ctx := context.Background()
			if err := s.Backfill(ctx, provider.Name(), from, to); err != nil {
				return fmt.Errorf("backfilling: %w", err)
			}

			logger.Info().Msg("backfill completed")
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "Start date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&toStr, "to", "", "End date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&series, "series", cfg.Backfill.Series, "Series to backfill (gasoline or crude)")

	return cmd
}
