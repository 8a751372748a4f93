// Package restapi holds the HTTP clients for the backend search engines.
// Both engines are external collaborators reached over REST; this package
// owns URL construction, outbound rate limiting, status mapping, and
// tolerant JSON decoding.
package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/civicscope/transearch/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Config holds shared settings for a backend client.
type Config struct {
	BaseURL string
	// HTTPClient overrides the default client (tests, custom transports).
	HTTPClient *http.Client
	// RequestsPerSecond caps outbound calls; zero disables the limiter.
	RequestsPerSecond float64
	Burst             int
	Logger            *zap.Logger
}

// httpClient is the shared plumbing for both engine clients.
type httpClient struct {
	engine  string
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newHTTPClient(engine string, cfg Config) (*httpClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: base URL is required", engine)
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: parse base URL: %w", engine, err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &httpClient{
		engine:  engine,
		base:    base,
		http:    hc,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// getJSON issues a GET and decodes the body into out. Backend failures map
// to domain errors: 404 becomes ErrNotFound, anything else non-2xx becomes
// a BackendStatusError wrapping ErrEngineUnavailable.
func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate wait: %w", c.engine, err)
		}
	}

	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.engine, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", c.engine, domain.ErrEngineUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("backend call",
		zap.String("engine", c.engine),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return domain.NewBackendStatus(c.engine, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.engine, err)
	}
	return nil
}
