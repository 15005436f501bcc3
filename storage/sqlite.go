package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dfimoveis_scraper/models"
)

// SQLiteStore keeps operational data: one row per crawl run plus the event
// log that goes with it. Listing data itself lives in the CSV and Postgres.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		site_id TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		pages_fetched INTEGER DEFAULT 0,
		listings_found INTEGER DEFAULT 0,
		listings_skipped INTEGER DEFAULT 0,
		stop_reason TEXT
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		site_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_scrape_logs_run ON scrape_logs(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO scrape_runs (site_id, started_at, status) VALUES (?, ?, ?)`,
		run.SiteID, run.StartedAt, run.Status,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) FinishRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(
		`UPDATE scrape_runs
		 SET finished_at = ?, status = ?, pages_fetched = ?,
		     listings_found = ?, listings_skipped = ?, stop_reason = ?
		 WHERE id = ?`,
		run.FinishedAt, run.Status, run.PagesFetched,
		run.ListingsFound, run.ListingsSkipped, run.StopReason,
		run.ID,
	)
	return err
}

func (s *SQLiteStore) AppendLog(runID int64, level models.LogLevel, message, siteID string) error {
	_, err := s.db.Exec(
		`INSERT INTO scrape_logs (run_id, timestamp, level, message, site_id) VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, siteID,
	)
	return err
}

// LastRun returns the most recent run for a site, or nil if there is none.
func (s *SQLiteStore) LastRun(siteID string) (*models.ScrapeRun, error) {
	row := s.db.QueryRow(
		`SELECT id, site_id, started_at, finished_at, status,
		        pages_fetched, listings_found, listings_skipped, COALESCE(stop_reason, '')
		 FROM scrape_runs WHERE site_id = ? ORDER BY started_at DESC LIMIT 1`,
		siteID,
	)

	var run models.ScrapeRun
	var finished sql.NullTime
	err := row.Scan(
		&run.ID, &run.SiteID, &run.StartedAt, &finished, &run.Status,
		&run.PagesFetched, &run.ListingsFound, &run.ListingsSkipped, &run.StopReason,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}
