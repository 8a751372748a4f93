package restapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/civicscope/transearch/internal/domain/search/mode"
	"github.com/civicscope/transearch/internal/domain/search/request"
	"github.com/civicscope/transearch/internal/domain/search/result"
)

// RelationalClient talks to the relational-store engine. Full-text and
// hybrid queries go through /search, semantic queries through
// /search/semantic; the engine also hosts suggestions and similarity
// lookups.
type RelationalClient struct {
	c *httpClient
}

// NewRelationalClient creates a relational engine client.
func NewRelationalClient(cfg Config) (*RelationalClient, error) {
	c, err := newHTTPClient("relational", cfg)
	if err != nil {
		return nil, err
	}
	return &RelationalClient{c: c}, nil
}

// Search dispatches the request to the endpoint matching its mode.
func (r *RelationalClient) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	q := url.Values{}
	q.Set("q", req.Query())
	pagingQuery(q, req)
	filterQuery(q, req)

	path := "/search"
	if req.Mode() == mode.Semantic {
		path = "/search/semantic"
		if th := req.Filters().SimilarityThreshold(); th != nil {
			q.Set("threshold", strconv.FormatFloat(*th, 'g', -1, 64))
		}
	} else {
		q.Set("mode", string(req.Mode()))
	}

	var dto searchResponseDTO
	if err := r.c.getJSON(ctx, path, q, &dto); err != nil {
		return result.Page{}, fmt.Errorf("relational search: %w", err)
	}
	return dto.toPage(req), nil
}

// Suggest returns a small ranked list of completions for a partial query.
func (r *RelationalClient) Suggest(ctx context.Context, partial, kind string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("q", partial)
	if kind != "" {
		q.Set("type", kind)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var dto suggestionsDTO
	if err := r.c.getJSON(ctx, "/search/suggestions", q, &dto); err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	return dto.Suggestions, nil
}

// Similar returns segments similar to the one identified by id.
func (r *RelationalClient) Similar(ctx context.Context, id string, limit int) (result.Page, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var dto searchResponseDTO
	if err := r.c.getJSON(ctx, "/search/similar/"+url.PathEscape(id), q, &dto); err != nil {
		return result.Page{}, fmt.Errorf("similar %s: %w", id, err)
	}
	return dto.toPage(nil), nil
}
