package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"dfimoveis_scraper/config"
	"dfimoveis_scraper/scraper"
	"dfimoveis_scraper/storage"
)

// Scheduler drives repeated crawls in daemon mode, either on a cron spec or
// a fixed interval. Runs never overlap: a tick that fires while a crawl is
// still going is dropped.
type Scheduler struct {
	cfg          *config.Config
	orchestrator *scraper.Orchestrator
	store        *storage.SQLiteStore
	cron         *cron.Cron
	ticker       *time.Ticker
	stopCh       chan struct{}
	runningCh    chan struct{}
}

func New(cfg *config.Config, orchestrator *scraper.Orchestrator, store *storage.SQLiteStore) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		orchestrator: orchestrator,
		store:        store,
		cron:         cron.New(),
		stopCh:       make(chan struct{}),
		runningCh:    make(chan struct{}, 1),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	for siteID := range s.cfg.Sites {
		last, err := s.store.LastRun(siteID)
		if err == nil && last != nil {
			log.Printf("Last run for %s: %s at %s (%d listings)",
				siteID, last.Status, last.StartedAt.Format(time.RFC3339), last.ListingsFound)
		}
	}

	switch {
	case s.cfg.Scheduler.Cron != "":
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() { s.runOnce(ctx) })
		if err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", s.cfg.Scheduler.Cron, err)
		}
		s.cron.Start()
		log.Printf("Scheduled crawls with cron spec %q", s.cfg.Scheduler.Cron)

	case s.cfg.Scheduler.Interval > 0:
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runOnce(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
		log.Printf("Scheduled crawls every %s", s.cfg.Scheduler.Interval)

	default:
		return fmt.Errorf("daemon mode needs SCRAPE_CRON or SCRAPE_INTERVAL")
	}

	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	select {
	case s.runningCh <- struct{}{}:
	default:
		log.Println("Previous crawl still running, skipping this tick")
		return
	}
	defer func() { <-s.runningCh }()

	if err := s.orchestrator.RunAll(ctx); err != nil {
		log.Printf("Scheduled crawl finished with error: %v", err)
	}
}

func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	cronCtx := s.cron.Stop()
	<-cronCtx.Done()
}
