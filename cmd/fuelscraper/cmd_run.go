package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gasolytics/fuel-price-scraper/internal/api/eia"
	"github.com/gasolytics/fuel-price-scraper/internal/database"
	"github.com/gasolytics/fuel-price-scraper/internal/http"
	"github.com/gasolytics/fuel-price-scraper/internal/scheduler"
	"github.com/gasolytics/fuel-price-scraper/internal/scraper"
)

func runCmd() *cobra.Command {
	var scrapeHour int
	var series string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the continuous scraper service",
		Long:  "Starts the fuel price scraper with an internal scheduler that runs daily at the specified hour.",
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
				Str("version", Version).
				Str("commit", Commit).
				Str("buildDate", BuildDate).
				Str("httpAddr", cfg.HTTPAddr).
				Int("scrapeHour", scrapeHour).
				Strs("series", seriesList).
				Msg("starting fuel price scraper")

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

			// Create scheduler
			sched := scheduler.New(s, scrapeHour, logger)

			// Create HTTP server
			httpServer := http.NewServer(cfg.HTTPAddr, s, sched, db, logger)

			// Wire Prometheus metrics to scraper
			s.SetPrometheusMetrics(httpServer.Metrics())

			// Setup signal handling
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			// Start HTTP server in goroutine
			go func() {
				if err := httpServer.Start(); err != nil {
					logger.Error().Err(err).Msg("HTTP server error")
					cancel()
				}
			}()

			// Start scheduler in goroutine
			go func() {
				if err := sched.Start(ctx); err != nil && err != context.Canceled {
					logger.Error().Err(err).Msg("scheduler error")
					cancel()
				}
			}()

			// Wait for signal
			select {
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			case <-ctx.Done():
			}

			// Graceful shutdown
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("HTTP server shutdown error")
			}

			logger.Info().Msg("shutdown complete")
			return nil
		},
	}

	cmd.Flags().IntVar(&scrapeHour, "scrape-hour", cfg.ScrapeHour, "Hour of day (0-23) to scrape")
	cmd.Flags().StringVar(&series, "series", strings.Join(cfg.Series, ","), "Comma-separated list of series (gasoline, crude)")

	return cmd
}
