// Package pagecache persists search result pages in a shared key-value
// store so that separate gateway processes can serve repeated queries
// without a backend round trip. Failures degrade to a miss; the cache is
// never allowed to fail a search.
package pagecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/civicscope/transearch/internal/db"
	"github.com/civicscope/transearch/internal/domain/search/result"
)

const keyPrefix = "transearch:page:"

// store is the consumer interface for the page cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DelByPrefix(ctx context.Context, prefix string) (int, error)
}

// Store caches result pages in a shared key-value store.
type Store struct {
	kv     store
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a page cache with the given entry lifetime.
func New(kv store, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, ttl: ttl, logger: logger}
}

// Get returns the cached page for a request key, or false on any miss or
// storage error.
func (s *Store) Get(ctx context.Context, key string) (result.Page, bool) {
	data, err := s.kv.Get(ctx, keyPrefix+key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			s.logger.Warn("page cache read failed", zap.String("key", key), zap.Error(err))
		}
		return result.Page{}, false
	}

	page, err := decodePage(data)
	if err != nil {
		s.logger.Warn("page cache entry corrupt", zap.String("key", key), zap.Error(err))
		return result.Page{}, false
	}
	return page, true
}

// Set stores a page under a request key. Best effort.
func (s *Store) Set(ctx context.Context, key string, page result.Page) {
	data, err := encodePage(page)
	if err != nil {
		s.logger.Warn("page cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.kv.SetWithTTL(ctx, keyPrefix+key, data, s.ttl); err != nil {
		s.logger.Warn("page cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Purge removes every cached page. Called after index-mutating admin
// actions. Returns the number of entries removed.
func (s *Store) Purge(ctx context.Context) (int, error) {
	n, err := s.kv.DelByPrefix(ctx, keyPrefix)
	if err != nil {
		return n, fmt.Errorf("purge page cache: %w", err)
	}
	return n, nil
}

type itemDTO struct {
	ID         string     `json:"id"`
	Speaker    string     `json:"speaker,omitempty"`
	Text       string     `json:"text,omitempty"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
	Sentiment  *float64   `json:"sentiment,omitempty"`
	Score      float64    `json:"score,omitempty"`
}

type pageDTO struct {
	Items    []itemDTO `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	TookMS   int64     `json:"took_ms"`
}

func encodePage(p result.Page) ([]byte, error) {
	dto := pageDTO{
		Items:    make([]itemDTO, 0, len(p.Items())),
		Total:    p.Total(),
		Page:     p.Page(),
		PageSize: p.PageSize(),
		TookMS:   p.Took().Milliseconds(),
	}
	for _, it := range p.Items() {
		dto.Items = append(dto.Items, itemDTO{
			ID:         it.ID(),
			Speaker:    it.Speaker(),
			Text:       it.Text(),
			RecordedAt: it.RecordedAt(),
			Sentiment:  it.Sentiment(),
			Score:      it.Score(),
		})
	}
	return json.Marshal(dto)
}

func decodePage(data []byte) (result.Page, error) {
	var dto pageDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return result.Page{}, fmt.Errorf("unmarshal page: %w", err)
	}
	items := make([]result.Item, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, result.NewItem(
			it.ID, it.Speaker, it.Text, it.RecordedAt, it.Sentiment, it.Score,
		))
	}
	return result.NewPage(
		items, dto.Total, dto.Page, dto.PageSize,
		time.Duration(dto.TookMS)*time.Millisecond,
	), nil
}
