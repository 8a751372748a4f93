package request

import (
	"fmt"
	"strings"

	"github.com/civicscope/transearch/internal/domain"
	"github.com/civicscope/transearch/internal/domain/search/engine"
	"github.com/civicscope/transearch/internal/domain/search/filter"
	"github.com/civicscope/transearch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 2048
	DefaultPage    = 1
	DefaultSize    = 25
	MaxSize        = 100
)

// Request is a validated, immutable search query. It is constructed once
// per dispatch and never mutated afterwards.
type Request struct {
	rawQuery   string
	query      string
	filters    filter.Filters
	searchMode mode.Mode
	eng        engine.Engine
	page       int
	pageSize   int
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, engine=relational, page=1, pageSize=25.
// The normalized query must be non-empty; callers that interpret free-form
// input are expected to surface domain.ErrQueryTooVague before dispatch.
func New(
	rawQuery, query string,
	f filter.Filters,
	m mode.Mode,
	e engine.Engine,
	page, pageSize int,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.ErrQueryTooVague
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if e == "" {
		e = engine.Relational
	}
	if !e.IsValid() {
		return Request{}, fmt.Errorf("invalid search engine: %q", e)
	}
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultSize
	}
	if pageSize > MaxSize {
		pageSize = MaxSize
	}
	if f.SimilarityThreshold() != nil && m != mode.Semantic {
		return Request{}, fmt.Errorf(
			"%w: similarity threshold requires semantic mode, got %q",
			domain.ErrFilterIncompatible, m,
		)
	}
	if rawQuery == "" {
		rawQuery = query
	}

	return Request{
		rawQuery:   rawQuery,
		query:      query,
		filters:    f,
		searchMode: m,
		eng:        e,
		page:       page,
		pageSize:   pageSize,
	}, nil
}

// RawQuery returns the query text as the user typed it.
func (r *Request) RawQuery() string { return r.rawQuery }

// Query returns the normalized query text. Never empty.
func (r *Request) Query() string { return r.query }

// Filters returns the filter set.
func (r *Request) Filters() filter.Filters { return r.filters }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Engine returns the backend engine selection.
func (r *Request) Engine() engine.Engine { return r.eng }

// Page returns the 1-based page number.
func (r *Request) Page() int { return r.page }

// PageSize returns the page size.
func (r *Request) PageSize() int { return r.pageSize }

// WithMode returns a copy of the request dispatched at a different mode.
// Used by the router's empty-result fallback; a threshold that only applies
// to semantic mode is dropped when leaving it.
func (r *Request) WithMode(m mode.Mode) Request {
	out := *r
	out.searchMode = m
	if m != mode.Semantic && out.filters.SimilarityThreshold() != nil {
		out.filters, _ = filter.New(
			out.filters.Speaker(), out.filters.Topic(), out.filters.Dataset(),
			out.filters.DateFrom(), out.filters.DateTo(),
			out.filters.SentimentMin(), out.filters.SentimentMax(),
			nil,
		)
	}
	return out
}

// WithEngine returns a copy of the request aimed at a different engine.
func (r *Request) WithEngine(e engine.Engine) Request {
	out := *r
	out.eng = e
	return out
}

// CacheKey derives a deterministic key covering every field that affects
// the response: query, filters, mode, engine and pagination.
func (r *Request) CacheKey() string {
	return fmt.Sprintf("search:%s:%s:p%d:n%d:%s?%s",
		r.eng, r.searchMode, r.page, r.pageSize, r.query, r.filters.Key())
}
