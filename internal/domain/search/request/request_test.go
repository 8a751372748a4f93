package request

import (
	"errors"
	"testing"

	"github.com/civicscope/transearch/internal/domain"
	"github.com/civicscope/transearch/internal/domain/search/engine"
	"github.com/civicscope/transearch/internal/domain/search/filter"
	"github.com/civicscope/transearch/internal/domain/search/mode"
)

func mustFilters(t *testing.T, threshold *float64) filter.Filters {
	t.Helper()
	f, err := filter.New("", "", "", nil, nil, nil, nil, threshold)
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}
	return f
}

func TestNew_Defaults(t *testing.T) {
	r, err := New("", "healthcare reform", filter.Filters{}, "", "", 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Mode() != mode.Hybrid {
		t.Errorf("Mode() = %q, want hybrid", r.Mode())
	}
	if r.Engine() != engine.Relational {
		t.Errorf("Engine() = %q, want relational", r.Engine())
	}
	if r.Page() != DefaultPage || r.PageSize() != DefaultSize {
		t.Errorf("pagination = %d/%d, want %d/%d", r.Page(), r.PageSize(), DefaultPage, DefaultSize)
	}
	if r.RawQuery() != "healthcare reform" {
		t.Errorf("RawQuery() = %q, want the query echoed", r.RawQuery())
	}
}

func TestNew_EmptyQuery(t *testing.T) {
	_, err := New("find stuff", "   ", filter.Filters{}, mode.Hybrid, engine.Relational, 1, 25)
	if !errors.Is(err, domain.ErrQueryTooVague) {
		t.Fatalf("expected ErrQueryTooVague, got %v", err)
	}
}

func TestNew_PageSizeClamped(t *testing.T) {
	r, err := New("", "economy", filter.Filters{}, mode.Hybrid, engine.Relational, 3, 5000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.PageSize() != MaxSize {
		t.Errorf("PageSize() = %d, want clamp to %d", r.PageSize(), MaxSize)
	}
	if r.Page() != 3 {
		t.Errorf("Page() = %d, want 3", r.Page())
	}
}

func TestNew_ThresholdRequiresSemantic(t *testing.T) {
	th := 0.7
	_, err := New("", "economy", mustFilters(t, &th), mode.Hybrid, engine.Relational, 1, 25)
	if !errors.Is(err, domain.ErrFilterIncompatible) {
		t.Fatalf("expected ErrFilterIncompatible, got %v", err)
	}

	r, err := New("", "economy", mustFilters(t, &th), mode.Semantic, engine.Relational, 1, 25)
	if err != nil {
		t.Fatalf("semantic mode should accept threshold: %v", err)
	}
	if r.Filters().SimilarityThreshold() == nil {
		t.Error("threshold lost")
	}
}

func TestWithMode_DropsThresholdOutsideSemantic(t *testing.T) {
	th := 0.7
	r, err := New("", "economy", mustFilters(t, &th), mode.Semantic, engine.Relational, 1, 25)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	alt := r.WithMode(mode.Hybrid)
	if alt.Filters().SimilarityThreshold() != nil {
		t.Error("threshold should be dropped when leaving semantic mode")
	}
	if r.Filters().SimilarityThreshold() == nil {
		t.Error("original request mutated")
	}
}

func TestCacheKey(t *testing.T) {
	a, _ := New("", "economy", filter.Filters{}, mode.Hybrid, engine.Relational, 1, 25)
	b, _ := New("", "economy", filter.Filters{}, mode.Hybrid, engine.Relational, 1, 25)
	if a.CacheKey() != b.CacheKey() {
		t.Error("identical requests must share a cache key")
	}

	variants := []Request{
		a.WithMode(mode.Semantic),
		a.WithEngine(engine.Document),
	}
	p2, _ := New("", "economy", filter.Filters{}, mode.Hybrid, engine.Relational, 2, 25)
	variants = append(variants, p2)
	for _, v := range variants {
		if v.CacheKey() == a.CacheKey() {
			t.Errorf("request variant %q should not share key %q", v.CacheKey(), a.CacheKey())
		}
	}
}
