package scraper

import (
	"context"
	"fmt"
	"log"
	"time"

	"dfimoveis_scraper/config"
	"dfimoveis_scraper/httputil"
	"dfimoveis_scraper/models"
	"dfimoveis_scraper/storage"
)

// Orchestrator runs crawls across all configured sites: run bookkeeping,
// preflight, session construction, and handing results to the sinks.
type Orchestrator struct {
	cfg     *config.Config
	store   *storage.SQLiteStore
	pgStore *storage.PostgresStore

	// newSession is swappable so tests can run without a browser.
	newSession func(site *config.SiteConfig) Session
	preflight  bool
}

func NewOrchestrator(cfg *config.Config, store *storage.SQLiteStore) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		store: store,
		newSession: func(site *config.SiteConfig) Session {
			return NewBrowserSession(site)
		},
		preflight: true,
	}
}

// SetPostgres enables the durable listing store in addition to the CSV sink.
func (o *Orchestrator) SetPostgres(pg *storage.PostgresStore) {
	o.pgStore = pg
}

func (o *Orchestrator) RunAll(ctx context.Context) error {
	var lastErr error
	for siteID := range o.cfg.Sites {
		if err := o.RunSite(ctx, siteID); err != nil {
			log.Printf("Error running site %s: %v", siteID, err)
			lastErr = err
		}
	}
	return lastErr
}

func (o *Orchestrator) RunSite(ctx context.Context, siteID string) error {
	site, ok := o.cfg.Sites[siteID]
	if !ok {
		return fmt.Errorf("unknown site: %s", siteID)
	}

	run := &models.ScrapeRun{
		SiteID:    siteID,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	runID, err := o.store.CreateRun(run)
	if err != nil {
		return err
	}
	run.ID = runID

	log.Printf("Starting crawl for %s", site.Name)

	if o.preflight {
		client := httputil.NewClient(&o.cfg.Proxy, site.UserAgent)
		if err := client.Preflight(ctx, site.HomeURL); err != nil {
			// Advisory only; the browser may still get through.
			log.Printf("Warning: preflight against %s failed: %v", site.HomeURL, err)
		}
	}

	crawler := NewCrawler(site, o.newSession(site))
	crawler.SetRun(o.store, runID)

	res, runErr := crawler.Run(ctx)

	if runErr == nil || site.PersistOnPartial() {
		o.persist(ctx, site, res, runErr != nil)
	} else if len(res.Listings) > 0 {
		log.Printf("Discarding %d partial listings (persist_partial disabled)", len(res.Listings))
	}

	o.finishRun(run, res, runErr)

	if runErr != nil {
		return fmt.Errorf("crawl %s: %w", siteID, runErr)
	}
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, site *config.SiteConfig, res *Result, partial bool) {
	if partial && len(res.Listings) > 0 {
		log.Printf("Persisting %d listings collected before the failure", len(res.Listings))
	}

	sink := storage.NewCSVSink(site.OutputPath)
	if _, err := sink.Persist(res.Listings); err != nil {
		log.Printf("Error writing CSV: %v", err)
	}

	if o.pgStore != nil && len(res.Listings) > 0 {
		saved, err := o.pgStore.SaveListings(ctx, site.ID, res.Listings)
		if err != nil {
			log.Printf("Error upserting listings into Postgres: %v", err)
		} else {
			log.Printf("Upserted %d listings into Postgres", saved)
		}
	}
}

func (o *Orchestrator) finishRun(run *models.ScrapeRun, res *Result, runErr error) {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	if runErr != nil {
		run.Status = models.RunStatusFailed
	}
	run.PagesFetched = res.PagesFetched
	run.ListingsFound = len(res.Listings)
	run.ListingsSkipped = res.ListingsSkipped
	run.StopReason = string(res.StopReason)

	if err := o.store.FinishRun(run); err != nil {
		log.Printf("Warning: failed to finalize run record: %v", err)
	}
}
