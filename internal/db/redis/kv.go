package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/civicscope/transearch/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.b().Set().Key(key).Value(string(value)).Ex(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.b().Del().Key(key).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// DelByPrefix scans for keys under prefix and deletes them in batches.
// Returns the number of keys removed.
func (s *Store) DelByPrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		cmd := s.b().Scan().Cursor(cursor).Match(prefix + "*").Count(256).Build()
		entry, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return removed, &db.Error{Op: db.OpScan, Err: err}
		}
		if len(entry.Elements) > 0 {
			del := s.b().Del().Key(entry.Elements...).Build()
			if err := s.do(ctx, del).Error(); err != nil {
				return removed, &db.Error{Op: db.OpDel, Err: err}
			}
			removed += len(entry.Elements)
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return removed, nil
		}
	}
}
