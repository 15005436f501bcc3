package scraper

import (
	"context"
	"errors"
)

var (
	// ErrSessionInit means the browser or its driver could not be started.
	// Nothing has been fetched when this is returned.
	ErrSessionInit = errors.New("browser session could not be started")

	// ErrNavigation means a page failed to load or render. Fatal to the
	// run; pages are not retried.
	ErrNavigation = errors.New("page navigation failed")
)

// Session is the browser-driving capability the crawler runs against.
// The production implementation is BrowserSession; tests substitute a fake
// that serves canned markup.
type Session interface {
	// Open launches the session. Safe to call once per run.
	Open() error
	// WarmUp visits the portal home page and lingers for a randomized
	// interval so the session picks up cookies before the real crawl.
	// The linger is cut short when ctx is cancelled.
	WarmUp(ctx context.Context, homeURL string) error
	// FetchPage navigates to pageURL and returns the rendered markup.
	FetchPage(pageURL string) (string, error)
	// Close releases all browser resources. Called unconditionally on
	// every exit path and safe to call more than once.
	Close()
}
