package scraper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dfimoveis_scraper/config"
	"dfimoveis_scraper/models"
	"dfimoveis_scraper/storage"
)

func testOrchestrator(t *testing.T, site *config.SiteConfig, session Session) (*Orchestrator, *storage.SQLiteStore) {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{Sites: map[string]*config.SiteConfig{site.ID: site}}
	o := NewOrchestrator(cfg, store)
	o.newSession = func(*config.SiteConfig) Session { return session }
	o.preflight = false
	return o, store
}

func TestRunSiteWritesCSVAndRunRecord(t *testing.T) {
	site := testSite(350)
	site.OutputPath = filepath.Join(t.TempDir(), "out.csv")

	session := &fakeSession{pages: []string{pageWith(3)}}
	o, store := testOrchestrator(t, site, session)

	if err := o.RunSite(context.Background(), site.ID); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := os.ReadFile(site.OutputPath)
	if err != nil {
		t.Fatalf("expected CSV output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 { // header + 3 rows
		t.Fatalf("expected 4 CSV lines, got %d", len(lines))
	}

	run, err := store.LastRun(site.ID)
	if err != nil || run == nil {
		t.Fatalf("expected a run record, got %v, %v", run, err)
	}
	if run.Status != models.RunStatusCompleted {
		t.Fatalf("expected completed run, got %s", run.Status)
	}
	if run.ListingsFound != 3 || run.PagesFetched != 2 {
		t.Fatalf("unexpected run stats: %+v", run)
	}
	if run.StopReason != string(StopNoMoreListings) {
		t.Fatalf("unexpected stop reason %q", run.StopReason)
	}
}

func TestRunSitePersistsPartialOnFetchError(t *testing.T) {
	site := testSite(350)
	site.OutputPath = filepath.Join(t.TempDir(), "out.csv")

	session := &fakeSession{pages: []string{pageWith(2), pageWith(2)}, failFetch: 2}
	o, store := testOrchestrator(t, site, session)

	if err := o.RunSite(context.Background(), site.ID); err == nil {
		t.Fatal("expected the navigation error to propagate")
	}

	// persist_partial defaults to on, so page 1's listings still land.
	data, err := os.ReadFile(site.OutputPath)
	if err != nil {
		t.Fatalf("expected partial CSV output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 { // header + 2 rows
		t.Fatalf("expected 3 CSV lines, got %d", len(lines))
	}

	run, _ := store.LastRun(site.ID)
	if run == nil || run.Status != models.RunStatusFailed {
		t.Fatalf("expected failed run record, got %+v", run)
	}
}

func TestRunSiteDiscardsPartialWhenDisabled(t *testing.T) {
	site := testSite(350)
	site.OutputPath = filepath.Join(t.TempDir(), "out.csv")
	off := false
	site.PersistPartial = &off

	session := &fakeSession{pages: []string{pageWith(2)}, failFetch: 2}
	o, _ := testOrchestrator(t, site, session)

	if err := o.RunSite(context.Background(), site.ID); err == nil {
		t.Fatal("expected the navigation error to propagate")
	}
	if _, err := os.Stat(site.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("expected no CSV file, stat err: %v", err)
	}
}
