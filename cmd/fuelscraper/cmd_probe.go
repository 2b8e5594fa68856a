package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gasolytics/fuel-price-scraper/internal/api/eia"
)

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Test connectivity to the EIA API",
		Long:  "Sends a minimal one-week query to verify the API key and network path. Exits non-zero when the API is unreachable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			client, err := eia.New(eia.Config{APIKey: cfg.EIAAPIKey, BaseURL: cfg.EIABaseURL}, logger)
			if err != nil {
				return err
			}

			if !client.TestConnection(context.Background()) {
				return fmt.Errorf("EIA API connection test failed")
			}

			fmt.Println("EIA API connection successful")
			return nil
		},
	}
}
