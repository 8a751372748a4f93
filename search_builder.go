package transearch

import (
	"context"
	"time"

	"github.com/civicscope/transearch/internal/domain/search/engine"
	"github.com/civicscope/transearch/internal/domain/search/filter"
	"github.com/civicscope/transearch/internal/domain/search/request"
)

// Engines selectable on a builder.
const (
	EngineRelational = engine.Relational
	EngineDocument   = engine.Document
)

// RequestBuilder is a fluent builder for search requests.
type RequestBuilder struct {
	client *Client

	query string
	mode  Mode
	eng   engine.Engine

	speaker   string
	topic     string
	dataset   string
	dateFrom  *time.Time
	dateTo    *time.Time
	sentMin   *float64
	sentMax   *float64
	threshold *float64

	page     int
	pageSize int
}

// NewSearch starts a request builder for the given query text.
// The text is used as-is; use Client.Query for free-form interpretation.
func (c *Client) NewSearch(query string) *RequestBuilder {
	return &RequestBuilder{client: c, query: query}
}

// Mode sets the match strategy (hybrid, semantic, lexical).
func (b *RequestBuilder) Mode(m Mode) *RequestBuilder {
	b.mode = m
	return b
}

// Engine pins the request to one backend engine.
func (b *RequestBuilder) Engine(e engine.Engine) *RequestBuilder {
	b.eng = e
	return b
}

// Speaker filters by speaker name (case-insensitive).
func (b *RequestBuilder) Speaker(name string) *RequestBuilder {
	b.speaker = name
	return b
}

// Topic filters by topic.
func (b *RequestBuilder) Topic(topic string) *RequestBuilder {
	b.topic = topic
	return b
}

// Dataset restricts the search to one dataset.
func (b *RequestBuilder) Dataset(name string) *RequestBuilder {
	b.dataset = name
	return b
}

// Between restricts results to segments recorded in [from, to].
func (b *RequestBuilder) Between(from, to time.Time) *RequestBuilder {
	b.dateFrom = &from
	b.dateTo = &to
	return b
}

// After restricts results to segments recorded at or after t.
func (b *RequestBuilder) After(t time.Time) *RequestBuilder {
	b.dateFrom = &t
	return b
}

// SentimentAbove keeps segments with sentiment at or above min ([-1, 1]).
func (b *RequestBuilder) SentimentAbove(min float64) *RequestBuilder {
	b.sentMin = &min
	return b
}

// SentimentBelow keeps segments with sentiment at or below max ([-1, 1]).
func (b *RequestBuilder) SentimentBelow(max float64) *RequestBuilder {
	b.sentMax = &max
	return b
}

// Threshold sets the minimum similarity score. Valid only with
// semantic mode; Build rejects other combinations.
func (b *RequestBuilder) Threshold(min float64) *RequestBuilder {
	b.threshold = &min
	return b
}

// Page selects the result page (1-based).
func (b *RequestBuilder) Page(n int) *RequestBuilder {
	b.page = n
	return b
}

// PageSize sets the page size (capped at the request maximum).
func (b *RequestBuilder) PageSize(n int) *RequestBuilder {
	b.pageSize = n
	return b
}

// Build validates the accumulated parameters into a Request.
func (b *RequestBuilder) Build() (Request, error) {
	f, err := filter.New(
		b.speaker, b.topic, b.dataset,
		b.dateFrom, b.dateTo,
		b.sentMin, b.sentMax, b.threshold,
	)
	if err != nil {
		return Request{}, err
	}
	return request.New("", b.query, f, b.mode, b.eng, b.page, b.pageSize)
}

// Do builds the request and executes it.
func (b *RequestBuilder) Do(ctx context.Context) (Page, error) {
	req, err := b.Build()
	if err != nil {
		return Page{}, err
	}
	return b.client.Search(ctx, &req)
}
