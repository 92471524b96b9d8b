package offline

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/remote"
)

// HTTPProbe checks connectivity by pinging the server's health endpoint.
type HTTPProbe struct {
	url        string
	httpClient *http.Client
}

// Compile-time check: HTTPProbe satisfies remote.Probe.
var _ remote.Probe = (*HTTPProbe)(nil)

// NewHTTPProbe creates a probe against the given server base URL.
func NewHTTPProbe(baseURL string) *HTTPProbe {
	return &HTTPProbe{
		url:        strings.TrimRight(baseURL, "/") + "/healthz",
		httpClient: &http.Client{Timeout: 3 * time.Second},
	}
}

// IsNetworkAvailable reports whether the server answered the health
// check. Any 2xx counts; everything else, including transport errors,
// is treated as offline.
func (p *HTTPProbe) IsNetworkAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close() //nolint:errcheck
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
