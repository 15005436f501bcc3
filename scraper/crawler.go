package scraper

import (
	"context"
	"fmt"
	"log"

	"dfimoveis_scraper/config"
	"dfimoveis_scraper/models"
	"dfimoveis_scraper/storage"
)

// StopReason records why a crawl ended. Both values are success outcomes.
type StopReason string

const (
	StopNoMoreListings StopReason = "no_more_listings"
	StopPageLimit      StopReason = "page_limit"
)

// Result accumulates everything a crawl run produced.
type Result struct {
	Listings        []models.Listing
	PagesFetched    int
	ListingsSkipped int
	StopReason      StopReason
}

// Crawler walks a portal's result pages one at a time through a Session,
// feeding each page to the extractor until an empty page or the configured
// page ceiling stops it.
type Crawler struct {
	cfg       *config.SiteConfig
	session   Session
	extractor *Extractor

	store *storage.SQLiteStore
	runID int64
}

func NewCrawler(cfg *config.SiteConfig, session Session) *Crawler {
	return &Crawler{
		cfg:       cfg,
		session:   session,
		extractor: NewExtractor(cfg.HomeURL),
	}
}

// SetRun attaches run bookkeeping; per-page progress is then also recorded
// in the operational store.
func (c *Crawler) SetRun(store *storage.SQLiteStore, runID int64) {
	c.store = store
	c.runID = runID
}

// Run executes one full crawl. On a navigation failure the listings
// collected so far are returned alongside the error, so the caller can
// decide whether to persist them. The session is released on every exit
// path, exactly once.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	// Close before Open: the release must run even when the browser never
	// came up, and Close tolerates a partially-acquired session.
	defer c.session.Close()

	if err := c.session.Open(); err != nil {
		return res, err
	}

	if err := c.session.WarmUp(ctx, c.cfg.HomeURL); err != nil {
		return res, err
	}

	for page := 1; ; page++ {
		if page > c.cfg.MaxPages {
			res.StopReason = StopPageLimit
			c.logf(models.LogLevelInfo, "Page ceiling of %d reached, stopping", c.cfg.MaxPages)
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		pageURL := c.pageURL(page)
		log.Printf("Navigating to page %d: %s", page, pageURL)

		markup, err := c.session.FetchPage(pageURL)
		if err != nil {
			c.logf(models.LogLevelError, "Page %d failed: %v", page, err)
			return res, fmt.Errorf("page %d: %w", page, err)
		}
		res.PagesFetched++

		listings, skipped, err := c.extractor.Extract(markup)
		if err != nil {
			return res, fmt.Errorf("page %d: %w", page, err)
		}
		res.ListingsSkipped += skipped
		if skipped > 0 {
			c.logf(models.LogLevelWarn, "Page %d: skipped %d malformed listings", page, skipped)
		}

		if len(listings) == 0 {
			res.StopReason = StopNoMoreListings
			c.logf(models.LogLevelInfo, "No listings on page %d, crawl complete", page)
			break
		}

		res.Listings = append(res.Listings, listings...)
		c.logf(models.LogLevelInfo, "Page %d: %d listings (total: %d)", page, len(listings), len(res.Listings))

		if page < c.cfg.MaxPages {
			lower, upper := c.cfg.Pacing.PageRange()
			pause := Delay(lower, upper)
			log.Printf("Pausing %.1fs before next page", pause.Seconds())
			if err := sleep(ctx, pause); err != nil {
				return res, err
			}
		}
	}

	return res, nil
}

// pageURL builds the result-page URL: page 1 is the bare base URL, later
// pages append the portal's pagina query parameter.
func (c *Crawler) pageURL(page int) string {
	if page <= 1 {
		return c.cfg.BaseURL
	}
	return fmt.Sprintf("%s?pagina=%d", c.cfg.BaseURL, page)
}

func (c *Crawler) logf(level models.LogLevel, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
	if c.store != nil {
		if err := c.store.AppendLog(c.runID, level, msg, c.cfg.ID); err != nil {
			log.Printf("Warning: failed to record log entry: %v", err)
		}
	}
}
