package scraper

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/playwright-community/playwright-go"

	"dfimoveis_scraper/config"
)

// BrowserSession drives a headless Chromium through Playwright. One session
// is opened per crawl run and owns the whole browser lifecycle.
type BrowserSession struct {
	cfg *config.SiteConfig

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	opened  bool
}

func NewBrowserSession(cfg *config.SiteConfig) *BrowserSession {
	return &BrowserSession{cfg: cfg}
}

func (s *BrowserSession) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionInit, err)
	}
	s.pw = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		s.teardown()
		return fmt.Errorf("%w: %v", ErrSessionInit, err)
	}
	s.browser = browser

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(s.cfg.UserAgent),
	})
	if err != nil {
		s.teardown()
		return fmt.Errorf("%w: %v", ErrSessionInit, err)
	}
	s.context = context

	page, err := context.NewPage()
	if err != nil {
		s.teardown()
		return fmt.Errorf("%w: %v", ErrSessionInit, err)
	}
	s.page = page

	s.opened = true
	return nil
}

func (s *BrowserSession) WarmUp(ctx context.Context, homeURL string) error {
	log.Printf("Warming up session on %s", homeURL)
	if _, err := s.page.Goto(homeURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("%w: warm-up %s: %v", ErrNavigation, homeURL, err)
	}

	lower, upper := s.cfg.Pacing.WarmupRange()
	pause := Delay(lower, upper)
	log.Printf("Lingering %.1fs to pick up session cookies", pause.Seconds())
	return sleep(ctx, pause)
}

func (s *BrowserSession) FetchPage(pageURL string) (string, error) {
	if _, err := s.page.Goto(pageURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNavigation, pageURL, err)
	}

	content, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("%w: read content of %s: %v", ErrNavigation, pageURL, err)
	}
	return content, nil
}

func (s *BrowserSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
}

// teardown releases everything acquired so far. Caller holds s.mu.
func (s *BrowserSession) teardown() {
	if s.page != nil {
		s.page.Close()
		s.page = nil
	}
	if s.context != nil {
		s.context.Close()
		s.context = nil
	}
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.pw != nil {
		s.pw.Stop()
		s.pw = nil
	}
	s.opened = false
}
