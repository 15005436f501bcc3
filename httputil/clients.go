package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"dfimoveis_scraper/config"
)

// Client wraps an http.Client that presents the same spoofed identity the
// browser session uses. It is only used for cheap preflight checks against
// the target site, never for scraping itself.
type Client struct {
	http *http.Client
}

type uaTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

func NewClient(proxyCfg *config.ProxyConfig, userAgent string) *Client {
	transport := &http.Transport{}
	if proxyCfg != nil && proxyCfg.URL != "" {
		if proxyURL, err := url.Parse(proxyCfg.URL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &Client{
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: &uaTransport{base: transport, userAgent: userAgent},
		},
	}
}

// Preflight issues one GET against the given URL and reports whether the
// site answered at all. A blocked or failing preflight is advisory only;
// the browser may still get through where a bare client does not.
func (c *Client) Preflight(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 500 {
		return fmt.Errorf("site returned %s", resp.Status)
	}
	return nil
}
