package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dfimoveis_scraper/config"
	"dfimoveis_scraper/logging"
	"dfimoveis_scraper/scheduler"
	"dfimoveis_scraper/scraper"
	"dfimoveis_scraper/storage"
)

var (
	scrapeNow = flag.Bool("scrape", false, "Run crawl once and exit")
	siteFlag  = flag.String("site", "", "Crawl only this site ID")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath, int64(cfg.LogMaxMB)<<20)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting dfimoveis scraper...")
	if len(cfg.Sites) == 0 {
		log.Fatal("No site configs found under config/sites")
	}

	log.Printf("Loaded %d site configs", len(cfg.Sites))
	for id, site := range cfg.Sites {
		log.Printf("  - %s (%s): up to %d pages -> %s", site.Name, id, site.MaxPages, site.OutputPath)
	}

	ctx := context.Background()

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer store.Close()
	log.Printf("Run database: %s", cfg.DBPath)

	orchestrator := scraper.NewOrchestrator(cfg, store)

	if cfg.DBURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.DBURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		orchestrator.SetPostgres(pgStore)
		log.Println("Postgres listing store enabled")
	}

	if *scrapeNow {
		runOnce(ctx, orchestrator)
		return
	}

	// Daemon mode
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg, orchestrator, store)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	cancel()
	sched.Stop()
	log.Println("Goodbye!")
}

func runOnce(ctx context.Context, orchestrator *scraper.Orchestrator) {
	var err error
	if *siteFlag != "" {
		err = orchestrator.RunSite(ctx, *siteFlag)
	} else {
		err = orchestrator.RunAll(ctx)
	}
	if err != nil {
		log.Fatalf("Crawl failed: %v", err)
	}
	log.Println("Crawl complete!")
}
