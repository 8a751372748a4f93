package restapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/civicscope/transearch/internal/domain/search/request"
	"github.com/civicscope/transearch/internal/domain/search/result"
)

const defaultIndex = "segments"

// DocumentClient talks to the document-store engine, which accepts the
// search mode as a parameter on a single endpoint.
type DocumentClient struct {
	c     *httpClient
	index string
}

// NewDocumentClient creates a document engine client targeting the given
// index (defaults to "segments").
func NewDocumentClient(cfg Config, index string) (*DocumentClient, error) {
	c, err := newHTTPClient("document", cfg)
	if err != nil {
		return nil, err
	}
	if index == "" {
		index = defaultIndex
	}
	return &DocumentClient{c: c, index: index}, nil
}

// Search dispatches the request against the document index.
func (d *DocumentClient) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	q := url.Values{}
	q.Set("q", req.Query())
	q.Set("mode", string(req.Mode()))
	q.Set("index", d.index)
	pagingQuery(q, req)
	filterQuery(q, req)

	var dto searchResponseDTO
	if err := d.c.getJSON(ctx, "/search/meili", q, &dto); err != nil {
		return result.Page{}, fmt.Errorf("document search: %w", err)
	}
	return dto.toPage(req), nil
}
