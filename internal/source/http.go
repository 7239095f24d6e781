package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

// HTTPSource fetches the team CSV from a URL. Responses are cached in memory
// so a reset does not refetch within the TTL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates an HTTP team source whose responses are cached for ttl
func NewHTTPSource(url string, ttl time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: NewCachedHTTPClient(http.DefaultTransport, ttl),
	}
}

// NewCachedHTTPClient returns a client backed by an in-memory httpcache that
// enforces ttl regardless of the origin's cache headers. A non-positive ttl
// disables caching.
func NewCachedHTTPClient(base http.RoundTripper, ttl time.Duration) *http.Client {
	if ttl <= 0 {
		return &http.Client{Transport: base, Timeout: 30 * time.Second}
	}

	hc := httpcache.NewMemoryCacheTransport()
	hc.Transport = &maxAgeTransport{wrapped: base, maxAge: ttl}

	return &http.Client{Transport: hc, Timeout: 30 * time.Second}
}

// maxAgeTransport rewrites origin cache headers to a fixed max-age
type maxAgeTransport struct {
	wrapped http.RoundTripper
	maxAge  time.Duration
}

func (t *maxAgeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.wrapped.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	resp.Header.Del("Pragma")
	resp.Header.Del("Expires")
	resp.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(t.maxAge/time.Second)))
	return resp, nil
}

// LoadTeams downloads and parses the CSV
func (s *HTTPSource) LoadTeams(ctx context.Context) ([]models.TeamRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build team request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams from %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("failed to fetch teams from %s: status %d", s.URL, resp.StatusCode)
	}

	records, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.URL, err)
	}

	logger.Debug("Loaded teams from URL",
		"url", s.URL,
		"teams", len(records),
		"cached", resp.Header.Get(httpcache.XFromCache) != "")
	return records, nil
}
