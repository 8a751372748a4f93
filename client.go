// Package transearch is a client library for searching political
// speech transcripts across a relational and a document backend. It
// interprets free-form queries into structured requests, caches
// responses with stale-while-revalidate semantics, and falls back
// across modes and engines when a backend returns nothing or fails.
package transearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/civicscope/transearch/internal/cache"
	dbRedis "github.com/civicscope/transearch/internal/db/redis"
	"github.com/civicscope/transearch/internal/domain/search/filter"
	"github.com/civicscope/transearch/internal/domain/search/mode"
	"github.com/civicscope/transearch/internal/domain/search/request"
	"github.com/civicscope/transearch/internal/domain/search/result"
	"github.com/civicscope/transearch/internal/repository/pagecache"
	"github.com/civicscope/transearch/internal/transport/restapi"
	interpretuc "github.com/civicscope/transearch/internal/usecase/interpret"
	searchuc "github.com/civicscope/transearch/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultDebounce         = 200 * time.Millisecond
)

// Re-exported domain types, so callers do not import internal packages.
type (
	// Request is a normalized, validated search request.
	Request = request.Request
	// Page is one page of search results.
	Page = result.Page
	// Item is a single search hit.
	Item = result.Item
	// Filters is the structured filter set.
	Filters = filter.Filters
	// Mode selects the match strategy.
	Mode = mode.Mode
	// Interpretation is the outcome of free-text interpretation.
	Interpretation = interpretuc.Interpretation
)

// Search modes.
const (
	ModeHybrid   = mode.Hybrid
	ModeSemantic = mode.Semantic
	ModeLexical  = mode.Lexical
)

// Client is the transearch library entry point.
type Client struct {
	search    *searchuc.Service
	interpret *interpretuc.Service
	cache     *cache.Cache
	store     *dbRedis.Store // nil when shared tier is disabled
	debounce  time.Duration
	logger    *zap.Logger
}

// New creates a Client. At minimum the backend URLs (or custom engines)
// must be configured.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	relational, document, suggester, similar, err := buildEngines(cfg)
	if err != nil {
		return nil, err
	}

	cacheOpts := []cache.Option{cache.WithLogger(cfg.logger)}
	if cfg.policies != nil {
		cacheOpts = append(cacheOpts, cache.WithPolicies(cfg.policies))
	}
	if cfg.clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(cfg.clock))
	}
	responseCache := cache.New(cacheOpts...)
	if cfg.janitor > 0 {
		responseCache.StartJanitor(cfg.janitor)
	}

	svc := searchuc.New(relational, document, suggester, similar, responseCache, cfg.logger)

	c := &Client{
		search:    svc,
		interpret: interpretuc.New(),
		cache:     responseCache,
		debounce:  cfg.debounce,
		logger:    cfg.logger,
	}

	if len(cfg.redisAddrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
		})
		if err != nil {
			responseCache.Close()
			return nil, fmt.Errorf("transearch: create redis store: %w", err)
		}
		if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			store.Close()
			responseCache.Close()
			return nil, fmt.Errorf("transearch: redis not ready: %w", err)
		}
		ttl := cfg.pageTTL
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		svc.WithPageCache(pagecache.New(store, ttl, cfg.logger))
		c.store = store
	}

	return c, nil
}

func buildEngines(cfg *clientConfig) (
	relational, document searchuc.Searcher,
	suggester searchuc.Suggester,
	similar searchuc.SimilarityFinder,
	err error,
) {
	relational = cfg.relational
	document = cfg.document
	suggester = cfg.suggester
	similar = cfg.similar

	if relational == nil {
		if cfg.relationalURL == "" {
			return nil, nil, nil, nil,
				errors.New("transearch: relational backend required (use WithRelational or WithEngines)")
		}
		rc, cerr := restapi.NewRelationalClient(restapi.Config{
			BaseURL:           cfg.relationalURL,
			HTTPClient:        cfg.httpClient,
			RequestsPerSecond: cfg.rps,
			Burst:             cfg.burst,
			Logger:            cfg.logger,
		})
		if cerr != nil {
			return nil, nil, nil, nil, fmt.Errorf("transearch: relational client: %w", cerr)
		}
		relational = rc
		if suggester == nil {
			suggester = rc
		}
		if similar == nil {
			similar = rc
		}
	}
	if document == nil {
		if cfg.documentURL == "" {
			return nil, nil, nil, nil,
				errors.New("transearch: document backend required (use WithDocument or WithEngines)")
		}
		dc, cerr := restapi.NewDocumentClient(restapi.Config{
			BaseURL:           cfg.documentURL,
			HTTPClient:        cfg.httpClient,
			RequestsPerSecond: cfg.rps,
			Burst:             cfg.burst,
			Logger:            cfg.logger,
		}, cfg.documentIndex)
		if cerr != nil {
			return nil, nil, nil, nil, fmt.Errorf("transearch: document client: %w", cerr)
		}
		document = dc
	}
	if suggester == nil {
		return nil, nil, nil, nil,
			errors.New("transearch: suggester required when relational engine is custom")
	}
	if similar == nil {
		return nil, nil, nil, nil,
			errors.New("transearch: similarity finder required when relational engine is custom")
	}
	return relational, document, suggester, similar, nil
}

// InterpretQuery extracts structured filters, a cleaned query, and a
// search mode from free-form text. Nothing is dispatched.
func (c *Client) InterpretQuery(text string) (Interpretation, error) {
	return c.interpret.Interpret(text)
}

// Search executes a normalized request through the cache and the
// fallback policy.
func (c *Client) Search(ctx context.Context, req *Request) (Page, error) {
	return c.search.Search(ctx, req)
}

// Query interprets free-form text and searches in one call.
func (c *Client) Query(ctx context.Context, text string) (Page, error) {
	in, err := c.interpret.Interpret(text)
	if err != nil {
		return Page{}, err
	}
	req, err := request.New(text, in.Query, in.Filters, in.Mode, "", 0, 0)
	if err != nil {
		return Page{}, err
	}
	return c.search.Search(ctx, &req)
}

// Suggest returns typeahead completions for a partial query.
func (c *Client) Suggest(ctx context.Context, partial, kind string, limit int) ([]string, error) {
	return c.search.Suggest(ctx, partial, kind, limit)
}

// Similar returns segments similar to a known segment id.
func (c *Client) Similar(ctx context.Context, id string, limit int) (Page, error) {
	return c.search.Similar(ctx, id, limit)
}

// Invalidate drops cached responses whose key matches the predicate;
// nil drops everything. Returns the number of entries removed.
func (c *Client) Invalidate(ctx context.Context, match func(key string) bool) int {
	return c.search.Invalidate(ctx, match)
}

// NewSession starts an interactive session whose results are delivered
// through handler. See Session for the ordering guarantees.
func (c *Client) NewSession(handler func(Page, error)) *Session {
	return newSession(c, handler)
}

// Close releases the cache janitor and the shared tier connection.
func (c *Client) Close() {
	c.cache.Close()
	if c.store != nil {
		c.store.Close()
	}
}
