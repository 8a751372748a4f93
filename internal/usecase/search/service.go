// Package search routes normalized requests across the backend engines,
// applying the cache and the fallback policy: one alternate-mode retry on
// an empty result, one engine switch on a failed call.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civicscope/transearch/internal/cache"
	"github.com/civicscope/transearch/internal/domain"
	"github.com/civicscope/transearch/internal/domain/search/engine"
	"github.com/civicscope/transearch/internal/domain/search/request"
	"github.com/civicscope/transearch/internal/domain/search/result"
	"github.com/civicscope/transearch/internal/metrics"
)

// Service orchestrates search across the configured engines.
type Service struct {
	engines map[engine.Engine]Searcher
	suggest Suggester
	similar SimilarityFinder
	cache   *cache.Cache
	pages   PageCache // optional shared tier
	logger  *zap.Logger
	m       *metrics.Search // nil-safe
}

// New creates a search service. relational serves as the suggestion and
// similarity host in addition to being an engine.
func New(
	relational Searcher,
	document Searcher,
	suggest Suggester,
	similar SimilarityFinder,
	c *cache.Cache,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engines: map[engine.Engine]Searcher{
			engine.Relational: relational,
			engine.Document:   document,
		},
		suggest: suggest,
		similar: similar,
		cache:   c,
		logger:  logger,
	}
}

// WithPageCache attaches the shared second-tier response cache.
func (s *Service) WithPageCache(p PageCache) *Service {
	s.pages = p
	return s
}

// WithMetrics attaches search metrics.
func (s *Service) WithMetrics(m *metrics.Search) *Service {
	s.m = m
	return s
}

// Search executes the request, consulting the cache first. The returned
// page always echoes the request's pagination and never exceeds its page
// size.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	if err := s.validate(req); err != nil {
		return result.Page{}, err
	}

	key := req.CacheKey()
	v, err := s.cache.Do(ctx, key, cache.CategorySearch, func(ctx context.Context) (any, error) {
		if s.pages != nil {
			if page, ok := s.pages.Get(ctx, key); ok {
				return page, nil
			}
		}
		page, err := s.dispatch(ctx, req)
		if err != nil {
			return nil, err
		}
		if s.pages != nil {
			s.pages.Set(ctx, key, page)
		}
		return page, nil
	})
	if err != nil {
		return result.Page{}, err
	}
	page, ok := v.(result.Page)
	if !ok {
		return result.Page{}, fmt.Errorf("unexpected cache value %T for key %s", v, key)
	}
	return page, nil
}

// outcome is the tagged result of a single engine attempt, driving the
// fallback state machine.
type outcome int

const (
	accepted outcome = iota
	retryMode
	switchEngine
	failed
)

// dispatch runs the attempt state machine:
//
//	Dispatched -> Succeeded            non-empty (or empty after fallback)
//	Dispatched -> EmptyPrimary         zero total: one alternate-mode retry,
//	                                   same engine
//	Dispatched -> FallbackDispatched   call failed: one switch to the other
//	                                   engine, original filters re-applied
//
// The caller's explicit engine and mode are always honored on the first
// attempt; automatic switching happens only as fallback.
func (s *Service) dispatch(ctx context.Context, req *request.Request) (result.Page, error) {
	page, out, firstErr := s.attempt(ctx, req, true)

	switch out {
	case accepted:
		s.observe(req, "primary")
		return page, nil

	case retryMode:
		alt := req.WithMode(req.Mode().Alternate())
		retryPage, retryOut, _ := s.attempt(ctx, &alt, false)
		if retryOut == accepted && !retryPage.IsEmpty() {
			s.observe(&alt, "mode_fallback")
			return retryPage, nil
		}
		// A legitimate empty result: the original empty page stands.
		s.observe(req, "empty")
		return page, nil

	case switchEngine:
		alt := req.WithEngine(req.Engine().Alternate())
		fbPage, fbOut, fbErr := s.attempt(ctx, &alt, false)
		if fbOut == accepted {
			// An empty fallback result is final; no further mode retries
			// once an engine has already failed.
			s.observe(&alt, "engine_fallback")
			return fbPage, nil
		}
		s.observe(req, "failed")
		return result.Page{}, fmt.Errorf("all engines failed: %w (fallback: %w)", firstErr, fbErr)
	}

	s.observe(req, "failed")
	return result.Page{}, firstErr
}

// attempt performs one engine call and classifies it. allowFallback
// distinguishes the first dispatch from fallback attempts, which must not
// cascade further.
func (s *Service) attempt(
	ctx context.Context, req *request.Request, allowFallback bool,
) (result.Page, outcome, error) {
	eng, ok := s.engines[req.Engine()]
	if !ok || eng == nil {
		return result.Page{}, failed, fmt.Errorf("%w: engine %q not configured",
			domain.ErrEngineUnavailable, req.Engine())
	}

	start := time.Now()
	page, err := eng.Search(ctx, req)
	if s.m != nil {
		s.m.ObserveDuration(string(req.Engine()), string(req.Mode()), time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.Warn("engine call failed",
			zap.String("engine", string(req.Engine())),
			zap.String("mode", string(req.Mode())),
			zap.Error(err),
		)
		if allowFallback {
			return result.Page{}, switchEngine, err
		}
		return result.Page{}, failed, err
	}

	if page.IsEmpty() && allowFallback {
		return page, retryMode, nil
	}
	return page, accepted, nil
}

// validate rejects filter combinations the engines cannot serve before any
// network call is made.
func (s *Service) validate(req *request.Request) error {
	if req.Filters().SimilarityThreshold() != nil && req.Engine() == engine.Document {
		return fmt.Errorf("%w: similarity threshold is not supported by the document engine",
			domain.ErrFilterIncompatible)
	}
	return nil
}

// Suggest returns typeahead completions, cached under the suggestion
// policy (no retries, long staleness).
func (s *Service) Suggest(ctx context.Context, partial, kind string, limit int) ([]string, error) {
	partial = strings.TrimSpace(partial)
	if partial == "" {
		return nil, nil
	}

	key := fmt.Sprintf("suggest:%s:%d:%s", kind, limit, strings.ToLower(partial))
	v, err := s.cache.Do(ctx, key, cache.CategorySuggest, func(ctx context.Context) (any, error) {
		return s.suggest.Suggest(ctx, partial, kind, limit)
	})
	if err != nil {
		return nil, err
	}
	out, _ := v.([]string)
	return out, nil
}

// Similar returns segments similar to id, cached under the similarity
// policy.
func (s *Service) Similar(ctx context.Context, id string, limit int) (result.Page, error) {
	if id == "" {
		return result.Page{}, fmt.Errorf("%w: empty segment id", domain.ErrNotFound)
	}

	key := fmt.Sprintf("similar:%d:%s", limit, id)
	v, err := s.cache.Do(ctx, key, cache.CategorySimilar, func(ctx context.Context) (any, error) {
		return s.similar.Similar(ctx, id, limit)
	})
	if err != nil {
		return result.Page{}, err
	}
	page, ok := v.(result.Page)
	if !ok {
		return result.Page{}, fmt.Errorf("unexpected cache value %T for key %s", v, key)
	}
	return page, nil
}

// Invalidate removes cached responses whose key matches the predicate
// (nil matches everything) and purges the shared tier. Called after admin
// actions that mutate the underlying index.
func (s *Service) Invalidate(ctx context.Context, match func(key string) bool) int {
	if match == nil {
		match = func(string) bool { return true }
	}
	removed := s.cache.Invalidate(match)
	if s.pages != nil {
		n, err := s.pages.Purge(ctx)
		if err != nil {
			s.logger.Warn("shared page cache purge failed", zap.Error(err))
		}
		removed += n
	}
	return removed
}

func (s *Service) observe(req *request.Request, outcome string) {
	s.logger.Debug("search served",
		zap.String("engine", string(req.Engine())),
		zap.String("mode", string(req.Mode())),
		zap.String("outcome", outcome),
	)
	if s.m != nil {
		s.m.ObserveSearch(string(req.Engine()), string(req.Mode()), outcome)
	}
}
