package result

import "time"

// Item is a single transcript segment hit. Only the identifier is
// guaranteed; every display field is optional and consumers must tolerate
// its absence.
type Item struct {
	id         string
	speaker    string
	text       string
	recordedAt *time.Time
	sentiment  *float64
	score      float64
}

// NewItem creates a search hit.
func NewItem(
	id, speaker, text string,
	recordedAt *time.Time,
	sentiment *float64,
	score float64,
) Item {
	return Item{
		id: id, speaker: speaker, text: text,
		recordedAt: recordedAt, sentiment: sentiment, score: score,
	}
}

// ID returns the stable segment identifier.
func (i *Item) ID() string { return i.id }

// Speaker returns the speaker name (empty when absent).
func (i *Item) Speaker() string { return i.speaker }

// Text returns the segment text (empty when absent).
func (i *Item) Text() string { return i.text }

// RecordedAt returns the segment timestamp (nil when absent).
func (i *Item) RecordedAt() *time.Time { return i.recordedAt }

// Sentiment returns the sentiment score (nil when absent).
func (i *Item) Sentiment() *float64 { return i.sentiment }

// Score returns the relevance score.
func (i *Item) Score() float64 { return i.score }

// Page is one page of search results.
type Page struct {
	items    []Item
	total    int
	page     int
	pageSize int
	took     time.Duration
}

// NewPage creates a result page, enforcing the shape invariants:
// items are clamped to pageSize, total is non-negative and never less
// than the number of items carried.
func NewPage(items []Item, total, page, pageSize int, took time.Duration) Page {
	if pageSize > 0 && len(items) > pageSize {
		items = items[:pageSize]
	}
	if total < len(items) {
		total = len(items)
	}
	if page <= 0 {
		page = 1
	}
	return Page{items: items, total: total, page: page, pageSize: pageSize, took: took}
}

// Items returns the ordered hits.
func (p *Page) Items() []Item { return p.items }

// Total returns the total number of matches across all pages.
func (p *Page) Total() int { return p.total }

// Page returns the 1-based page number echoed from the request.
func (p *Page) Page() int { return p.page }

// PageSize returns the page size echoed from the request.
func (p *Page) PageSize() int { return p.pageSize }

// Took returns the backend-reported search duration.
func (p *Page) Took() time.Duration { return p.took }

// IsEmpty reports whether the page carries no hits at all.
func (p *Page) IsEmpty() bool { return p.total == 0 }
