package search

import (
	"context"

	"github.com/civicscope/transearch/internal/domain/search/request"
	"github.com/civicscope/transearch/internal/domain/search/result"
)

// Searcher is a single backend engine. Both engines expose the same search
// surface; engine-specific endpoint selection lives in the transport layer.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Page, error)
}

// Suggester provides typeahead completions. Hosted by the relational
// engine only.
type Suggester interface {
	Suggest(ctx context.Context, partial, kind string, limit int) ([]string, error)
}

// SimilarityFinder returns segments similar to a known segment. Hosted by
// the relational engine only.
type SimilarityFinder interface {
	Similar(ctx context.Context, id string, limit int) (result.Page, error)
}

// PageCache is the shared second-tier response cache. Implementations must
// degrade to a miss rather than fail a search.
type PageCache interface {
	Get(ctx context.Context, key string) (result.Page, bool)
	Set(ctx context.Context, key string, page result.Page)
	Purge(ctx context.Context) (int, error)
}
