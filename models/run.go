package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type ScrapeRun struct {
	ID              int64      `json:"id" db:"id"`
	SiteID          string     `json:"site_id" db:"site_id"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at" db:"finished_at"`
	Status          RunStatus  `json:"status" db:"status"`
	PagesFetched    int        `json:"pages_fetched" db:"pages_fetched"`
	ListingsFound   int        `json:"listings_found" db:"listings_found"`
	ListingsSkipped int        `json:"listings_skipped" db:"listings_skipped"`
	StopReason      string     `json:"stop_reason" db:"stop_reason"`
}
