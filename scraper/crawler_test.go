package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dfimoveis_scraper/config"
)

// fakeSession serves canned markup so crawl behavior can be tested without
// a browser or network.
type fakeSession struct {
	pages      []string // markup for page N at pages[N-1]
	afterPages string   // served once pages is exhausted ("" = empty page)
	openErr    error
	failFetch  int // fail the Nth fetch (0 = never)

	fetched []string
	warmups []string
	closes  int
}

func (f *fakeSession) Open() error { return f.openErr }

func (f *fakeSession) WarmUp(ctx context.Context, homeURL string) error {
	f.warmups = append(f.warmups, homeURL)
	return ctx.Err()
}

func (f *fakeSession) FetchPage(pageURL string) (string, error) {
	n := len(f.fetched) + 1
	f.fetched = append(f.fetched, pageURL)
	if f.failFetch != 0 && n == f.failFetch {
		return "", fmt.Errorf("%w: connection reset", ErrNavigation)
	}
	if n <= len(f.pages) {
		return f.pages[n-1], nil
	}
	return f.afterPages, nil
}

func (f *fakeSession) Close() { f.closes++ }

// pageWith builds markup carrying n well-formed listing containers.
func pageWith(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="property-list">`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `
		<div class="property-list__item">
			<a href="/anuncio/%d"></a>
			<p class="property-list__price">R$ %d.000</p>
			<p class="property-list__address">Quadra %d, Brasília</p>
			<ul class="property-list__features">
				<li title="Quartos">2</li>
			</ul>
		</div>`, i, i+1, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func testSite(maxPages int) *config.SiteConfig {
	return &config.SiteConfig{
		ID:       "test",
		Name:     "Test Portal",
		BaseURL:  "https://example.com/aluguel/df/todos/imoveis",
		HomeURL:  "https://example.com/",
		MaxPages: maxPages,
		Pacing: config.PacingConfig{
			WarmupMinMS: 1, WarmupMaxMS: 1,
			PageMinMS: 1, PageMaxMS: 1,
		},
	}
}

func TestCrawlStopsOnEmptyPage(t *testing.T) {
	session := &fakeSession{pages: []string{pageWith(20)}}
	crawler := NewCrawler(testSite(350), session)

	res, err := crawler.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.StopReason != StopNoMoreListings {
		t.Fatalf("expected stop reason %q, got %q", StopNoMoreListings, res.StopReason)
	}
	if len(res.Listings) != 20 {
		t.Fatalf("expected 20 listings, got %d", len(res.Listings))
	}
	if len(session.fetched) != 2 {
		t.Fatalf("expected 2 fetches, got %d", len(session.fetched))
	}
	if session.closes != 1 {
		t.Fatalf("session must be closed exactly once, got %d", session.closes)
	}
	if len(session.warmups) != 1 || session.warmups[0] != "https://example.com/" {
		t.Fatalf("expected one warm-up against home URL, got %v", session.warmups)
	}
}

func TestCrawlRespectsPageCeiling(t *testing.T) {
	session := &fakeSession{afterPages: pageWith(3)}
	crawler := NewCrawler(testSite(5), session)

	res, err := crawler.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.StopReason != StopPageLimit {
		t.Fatalf("expected stop reason %q, got %q", StopPageLimit, res.StopReason)
	}
	if len(session.fetched) != 5 {
		t.Fatalf("expected exactly 5 fetches, got %d", len(session.fetched))
	}
	if len(res.Listings) != 15 {
		t.Fatalf("expected 15 listings, got %d", len(res.Listings))
	}
	if res.PagesFetched != 5 {
		t.Fatalf("expected PagesFetched 5, got %d", res.PagesFetched)
	}
}

func TestCrawlPageURLs(t *testing.T) {
	session := &fakeSession{pages: []string{pageWith(1), pageWith(1)}}
	crawler := NewCrawler(testSite(350), session)

	if _, err := crawler.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []string{
		"https://example.com/aluguel/df/todos/imoveis",
		"https://example.com/aluguel/df/todos/imoveis?pagina=2",
		"https://example.com/aluguel/df/todos/imoveis?pagina=3",
	}
	if len(session.fetched) != len(want) {
		t.Fatalf("expected %d fetches, got %d", len(want), len(session.fetched))
	}
	for i := range want {
		if session.fetched[i] != want[i] {
			t.Fatalf("fetch %d: expected %q, got %q", i+1, want[i], session.fetched[i])
		}
	}
}

func TestCrawlFetchErrorReturnsPartialResults(t *testing.T) {
	session := &fakeSession{pages: []string{pageWith(4), pageWith(4)}, failFetch: 2}
	crawler := NewCrawler(testSite(350), session)

	res, err := crawler.Run(context.Background())
	if err == nil {
		t.Fatal("expected a navigation error")
	}
	if !errors.Is(err, ErrNavigation) {
		t.Fatalf("expected ErrNavigation, got %v", err)
	}
	if len(res.Listings) != 4 {
		t.Fatalf("expected 4 listings from page 1, got %d", len(res.Listings))
	}
	if session.closes != 1 {
		t.Fatalf("session must be closed exactly once on error exit, got %d", session.closes)
	}
}

func TestCrawlOpenErrorAbortsBeforeFetching(t *testing.T) {
	session := &fakeSession{openErr: fmt.Errorf("%w: driver missing", ErrSessionInit)}
	crawler := NewCrawler(testSite(350), session)

	_, err := crawler.Run(context.Background())
	if !errors.Is(err, ErrSessionInit) {
		t.Fatalf("expected ErrSessionInit, got %v", err)
	}
	if len(session.fetched) != 0 {
		t.Fatalf("no pages should be fetched, got %d", len(session.fetched))
	}
	if session.closes != 1 {
		t.Fatalf("session release must still run, got %d closes", session.closes)
	}
}

func TestCrawlHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := &fakeSession{afterPages: pageWith(1)}
	crawler := NewCrawler(testSite(350), session)

	_, err := crawler.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(session.fetched) != 0 {
		t.Fatalf("cancelled run must not fetch, got %d fetches", len(session.fetched))
	}
	if session.closes != 1 {
		t.Fatalf("session must be closed exactly once, got %d", session.closes)
	}
}
