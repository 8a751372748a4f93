package cache

import "time"

// Category groups requests with the same staleness and retry behavior.
type Category string

// Request categories.
const (
	// CategorySearch covers interactive full-text search responses.
	CategorySearch Category = "search"
	// CategorySuggest covers suggestion lookups keyed by short prefixes.
	CategorySuggest Category = "suggest"
	// CategorySimilar covers similarity lookups keyed by segment id.
	CategorySimilar Category = "similar"
)

// Policy controls per-category freshness, eviction, and fetch retries.
// Fresh must not exceed Evict; entries past Evict are never served.
type Policy struct {
	Fresh   time.Duration
	Evict   time.Duration
	Retries int
}

// DefaultPolicies returns the standard per-category policies. Suggestion
// and similarity lookups tolerate longer staleness: their inputs have low
// cardinality and the backend calls are the costly ones.
func DefaultPolicies() map[Category]Policy {
	return map[Category]Policy{
		CategorySearch:  {Fresh: 30 * time.Second, Evict: 5 * time.Minute, Retries: 1},
		CategorySuggest: {Fresh: 5 * time.Minute, Evict: 30 * time.Minute, Retries: 0},
		CategorySimilar: {Fresh: 10 * time.Minute, Evict: 30 * time.Minute, Retries: 0},
	}
}

func (p Policy) normalized() Policy {
	if p.Evict < p.Fresh {
		p.Evict = p.Fresh
	}
	if p.Retries < 0 {
		p.Retries = 0
	}
	return p
}
