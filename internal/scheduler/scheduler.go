// Package scheduler provides a daily scheduler for fuel price scraping.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/gasolytics/fuel-price-scraper/internal/scraper"
)

// Scheduler runs the daily scrape at a fixed hour on a cron schedule.
type Scheduler struct {
	scraper    *scraper.Scraper
	scrapeHour int
	logger     zerolog.Logger

	mu           sync.RWMutex
	cron         *cron.Cron
	entryID      cron.EntryID
	lastScrapeAt *time.Time
	running      bool
}

// New creates a new Scheduler that scrapes daily at the given hour.
func New(s *scraper.Scraper, scrapeHour int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scraper:    s,
		scrapeHour: scrapeHour,
		logger:     logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler and blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().Int("scrapeHour", s.scrapeHour).Msg("starting scheduler")

	// Catch up if today's scrape has not happened yet
	s.runIfNeeded(ctx)

	c := cron.New()
	spec := fmt.Sprintf("0 %d * * *", s.scrapeHour)
	entryID, err := c.AddFunc(spec, func() {
		s.runScrape(ctx)
	})
	if err != nil {
		return fmt.Errorf("registering cron schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	s.cron = c
	s.entryID = entryID
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	c.Start()

	s.logger.Info().
		Time("nextScrape", c.Entry(entryID).Next).
		Msg("next scrape scheduled")

	<-ctx.Done()

	s.logger.Info().Msg("scheduler stopped")

	// Wait for an in-flight scrape to finish before returning
	<-c.Stop().Done()

	return ctx.Err()
}

// runIfNeeded checks if scraping is needed and runs it.
func (s *Scheduler) runIfNeeded(ctx context.Context) {
	providers := s.scraper.GetProviders()

	for _, provider := range providers {
		hasScraped, err := s.scraper.HasScrapedToday(ctx, provider.Name())
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("provider", provider.Name()).
				Msg("failed to check if scraped today")
			continue
		}

		if !hasScraped {
			s.logger.Info().
				Str("provider", provider.Name()).
				Msg("no scrape for today, running initial scrape")

			if err := s.scraper.ScrapeProvider(ctx, provider.Name()); err != nil {
				s.logger.Error().
					Err(err).
					Str("provider", provider.Name()).
					Msg("initial scrape failed")
			}
		} else {
			s.logger.Info().
				Str("provider", provider.Name()).
				Msg("already scraped today, skipping initial scrape")
		}
	}
}

// runScrape runs the scraper for all providers.
func (s *Scheduler) runScrape(ctx context.Context) {
	s.logger.Info().Msg("running scheduled scrape")

	now := time.Now()
	s.mu.Lock()
	s.lastScrapeAt = &now
	s.mu.Unlock()

	if err := s.scraper.ScrapeAll(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled scrape failed")
	} else {
		s.logger.Info().Msg("scheduled scrape completed")
	}
}

// NextScrapeAt returns the time of the next scheduled scrape.
func (s *Scheduler) NextScrapeAt() time.Time {
	s.mu.RLock()
	c, id := s.cron, s.entryID
	s.mu.RUnlock()

	if c == nil {
		return time.Time{}
	}
	return c.Entry(id).Next
}

// LastScrapeAt returns the time of the last scheduled scrape.
func (s *Scheduler) LastScrapeAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastScrapeAt
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
