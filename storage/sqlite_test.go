package storage

import (
	"path/filepath"
	"testing"
	"time"

	"dfimoveis_scraper/models"
)

func TestRunLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	run := &models.ScrapeRun{
		SiteID:    "dfimoveis",
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	runID, err := store.CreateRun(run)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	run.ID = runID

	if err := store.AppendLog(runID, models.LogLevelInfo, "Page 1: 20 listings", "dfimoveis"); err != nil {
		t.Fatalf("append log: %v", err)
	}

	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	run.PagesFetched = 2
	run.ListingsFound = 20
	run.ListingsSkipped = 1
	run.StopReason = "no_more_listings"
	if err := store.FinishRun(run); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	got, err := store.LastRun("dfimoveis")
	if err != nil {
		t.Fatalf("last run: %v", err)
	}
	if got == nil {
		t.Fatal("expected a run record")
	}
	if got.ID != runID || got.Status != models.RunStatusCompleted {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.ListingsFound != 20 || got.ListingsSkipped != 1 || got.PagesFetched != 2 {
		t.Fatalf("unexpected stats: %+v", got)
	}
	if got.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
}

func TestLastRunEmpty(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	got, err := store.LastRun("nope")
	if err != nil {
		t.Fatalf("last run: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
