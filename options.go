package transearch

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/civicscope/transearch/internal/cache"
	searchuc "github.com/civicscope/transearch/internal/usecase/search"
)

// Option configures a Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	relationalURL string
	documentURL   string
	documentIndex string
	rps           float64
	burst         int
	httpClient    *http.Client

	redisAddrs    []string
	redisPassword string
	pageTTL       time.Duration

	// custom engines override the URL-based clients (tests, embedding)
	relational searchuc.Searcher
	document   searchuc.Searcher
	suggester  searchuc.Suggester
	similar    searchuc.SimilarityFinder

	policies map[cache.Category]cache.Policy
	janitor  time.Duration
	debounce time.Duration
	clock    func() time.Time

	logger *zap.Logger
}

// WithRelational points the client at the relational search backend.
func WithRelational(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.relationalURL = baseURL
	})
}

// WithDocument points the client at the document search backend.
// index selects the target index; empty means the default.
func WithDocument(baseURL, index string) Option {
	return optionFunc(func(c *clientConfig) {
		c.documentURL = baseURL
		c.documentIndex = index
	})
}

// WithHTTPClient overrides the HTTP client used by both backend clients
// (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithClock injects the cache clock, for tests.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(c *clientConfig) {
		c.clock = now
	})
}

// WithRateLimit caps outbound calls per backend.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rps = requestsPerSecond
		c.burst = burst
	})
}

// WithRedis enables the shared page cache tier.
func WithRedis(addrs []string, password string, pageTTL time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = addrs
		c.redisPassword = password
		c.pageTTL = pageTTL
	})
}

// WithEngines installs custom search backends, bypassing the REST clients.
func WithEngines(relational, document searchuc.Searcher) Option {
	return optionFunc(func(c *clientConfig) {
		c.relational = relational
		c.document = document
	})
}

// WithSuggester installs a custom suggestion backend.
func WithSuggester(s searchuc.Suggester) Option {
	return optionFunc(func(c *clientConfig) {
		c.suggester = s
	})
}

// WithSimilarityFinder installs a custom similarity backend.
func WithSimilarityFinder(s searchuc.SimilarityFinder) Option {
	return optionFunc(func(c *clientConfig) {
		c.similar = s
	})
}

// WithCachePolicies overrides the per-category freshness policies.
func WithCachePolicies(p map[cache.Category]cache.Policy) Option {
	return optionFunc(func(c *clientConfig) {
		c.policies = p
	})
}

// WithJanitor sets the cache sweep interval. Zero disables the janitor.
func WithJanitor(interval time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.janitor = interval
	})
}

// WithDebounce sets the session keystroke debounce window.
func WithDebounce(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.debounce = d
	})
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
