// Package cache provides a process-wide, time-bounded response cache with
// stale-while-revalidate semantics and an at-most-one-concurrent-fetch
// guarantee per key.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// refreshTimeout bounds background revalidation fetches, which are detached
// from the caller's context.
const refreshTimeout = 15 * time.Second

type entry struct {
	value      any
	insertedAt time.Time
	staleAfter time.Time
	evictAfter time.Time
}

// Cache is a keyed cache of completed responses. Writes are
// overwrite-by-key only; concurrent readers never block each other beyond
// the map lock. Safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]entry
	policies map[Category]Policy

	group  singleflight.Group
	now    func() time.Time
	logger *zap.Logger
	// observe receives (category, result) where result is hit/stale/miss.
	observe func(category, result string)

	stopJanitor chan struct{}
	janitorOnce sync.Once
}

// Option configures a Cache.
type Option func(*Cache)

// WithPolicies overrides the per-category policies.
func WithPolicies(p map[Category]Policy) Option {
	return func(c *Cache) { c.policies = p }
}

// WithClock injects a clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithObserver registers a metrics hook receiving (category, result).
func WithObserver(fn func(category, result string)) Option {
	return func(c *Cache) { c.observe = fn }
}

// New creates a cache with default policies.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:     make(map[string]entry),
		policies:    DefaultPolicies(),
		now:         time.Now,
		logger:      zap.NewNop(),
		stopJanitor: make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StartJanitor launches a background sweep at the given interval. Stops
// when Close is called. Eviction also happens lazily on access, so the
// janitor only bounds memory for keys that are never read again.
func (c *Cache) StartJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stopJanitor:
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// Close stops the janitor goroutine.
func (c *Cache) Close() {
	c.janitorOnce.Do(func() { close(c.stopJanitor) })
}

// Do returns the value for key, fetching it at most once concurrently.
// A fresh entry is returned as-is. A stale-but-unevicted entry is returned
// immediately while a background refresh runs. On a miss the fetch runs
// inline, deduplicated across concurrent callers, with the category's
// one-shot retry policy applied.
func (c *Cache) Do(
	ctx context.Context, key string, cat Category,
	fetch func(ctx context.Context) (any, error),
) (any, error) {
	pol := c.policy(cat)

	v, state := c.lookup(key)
	switch state {
	case stateFresh:
		c.report(cat, "hit")
		return v, nil
	case stateStale:
		c.report(cat, "stale")
		go c.refresh(ctx, key, pol, cat, fetch)
		return v, nil
	}

	c.report(cat, "miss")
	val, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have stored the value between our lookup and
		// joining the group.
		if v, state := c.lookup(key); state == stateFresh {
			return v, nil
		}
		v, err := fetchWithRetry(ctx, pol.Retries, fetch)
		if err != nil {
			return nil, err
		}
		c.Set(key, cat, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Get returns a cached value if present and not evicted. Stale values are
// still returned; the second result reports presence.
func (c *Cache) Get(key string) (any, bool) {
	v, state := c.lookup(key)
	return v, state != stateMiss
}

// Set stores a value under key with the category's freshness windows.
func (c *Cache) Set(key string, cat Category, value any) {
	pol := c.policy(cat)
	now := c.now()
	c.mu.Lock()
	c.entries[key] = entry{
		value:      value,
		insertedAt: now,
		staleAfter: now.Add(pol.Fresh),
		evictAfter: now.Add(pol.Evict),
	}
	c.mu.Unlock()
}

// Invalidate removes every entry whose key matches the predicate and
// returns the number removed.
func (c *Cache) Invalidate(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.entries {
		if match(k) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of live (non-evicted) entries.
func (c *Cache) Len() int {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if now.Before(e.evictAfter) {
			n++
		}
	}
	return n
}

type lookupState int

const (
	stateMiss lookupState = iota
	stateFresh
	stateStale
)

func (c *Cache) lookup(key string) (any, lookupState) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, stateMiss
	}
	if !now.Before(e.evictAfter) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// replaced the entry.
		if cur, ok := c.entries[key]; ok && !now.Before(cur.evictAfter) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, stateMiss
	}
	if now.Before(e.staleAfter) {
		return e.value, stateFresh
	}
	return e.value, stateStale
}

// refresh revalidates a stale entry in the background, deduplicated through
// the same singleflight group as misses. Failures keep the stale value.
func (c *Cache) refresh(
	ctx context.Context, key string, pol Policy, cat Category,
	fetch func(ctx context.Context) (any, error),
) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()

	_, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fetchWithRetry(rctx, pol.Retries, fetch)
		if err != nil {
			return nil, err
		}
		c.Set(key, cat, v)
		return v, nil
	})
	if err != nil {
		c.logger.Warn("background revalidation failed",
			zap.String("key", key),
			zap.String("category", string(cat)),
			zap.Error(err),
		)
	}
}

func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.entries {
		if !now.Before(e.evictAfter) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) policy(cat Category) Policy {
	if p, ok := c.policies[cat]; ok {
		return p.normalized()
	}
	return DefaultPolicies()[CategorySearch].normalized()
}

func (c *Cache) report(cat Category, result string) {
	if c.observe != nil {
		c.observe(string(cat), result)
	}
}

func fetchWithRetry(
	ctx context.Context, retries int,
	fetch func(ctx context.Context) (any, error),
) (any, error) {
	v, err := fetch(ctx)
	for attempt := 0; err != nil && attempt < retries; attempt++ {
		if ctx.Err() != nil {
			return nil, err
		}
		v, err = fetch(ctx)
	}
	return v, err
}
