package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/civicscope/transearch/internal/cache"
	"github.com/civicscope/transearch/internal/domain/search/engine"
	"github.com/civicscope/transearch/internal/domain/search/filter"
	"github.com/civicscope/transearch/internal/domain/search/mode"
	"github.com/civicscope/transearch/internal/domain/search/request"
	"github.com/civicscope/transearch/internal/domain/search/result"
)

// call records one engine invocation for assertion.
type call struct {
	Engine engine.Engine
	Mode   mode.Mode
	Key    string
}

// mockEngine scripts per-call responses. Responses are consumed in order;
// the last one repeats.
type mockEngine struct {
	mu        sync.Mutex
	responses []engineResponse
	calls     []call
}

type engineResponse struct {
	page result.Page
	err  error
}

func (m *mockEngine) Search(_ context.Context, req *request.Request) (result.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{Engine: req.Engine(), Mode: req.Mode(), Key: req.CacheKey()})
	if len(m.responses) == 0 {
		return result.Page{}, nil
	}
	r := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return r.page, r.err
}

func (m *mockEngine) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockEngine) callAt(i int) call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

type mockSuggester struct {
	mu    sync.Mutex
	out   []string
	err   error
	calls int
}

func (m *mockSuggester) Suggest(context.Context, string, string, int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.out, m.err
}

type mockSimilar struct {
	page result.Page
	err  error
}

func (m *mockSimilar) Similar(context.Context, string, int) (result.Page, error) {
	return m.page, m.err
}

type mockPageCache struct {
	mu     sync.Mutex
	data   map[string]result.Page
	purged bool
}

func newMockPageCache() *mockPageCache {
	return &mockPageCache{data: map[string]result.Page{}}
}

func (m *mockPageCache) Get(_ context.Context, key string) (result.Page, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[key]
	return p, ok
}

func (m *mockPageCache) Set(_ context.Context, key string, page result.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = page
}

func (m *mockPageCache) Purge(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.data)
	m.data = map[string]result.Page{}
	m.purged = true
	return n, nil
}

func pageOf(t *testing.T, n, total int) result.Page {
	t.Helper()
	items := make([]result.Item, n)
	for i := range items {
		items[i] = result.NewItem(string(rune('a'+i)), "", "", nil, nil, 0)
	}
	return result.NewPage(items, total, 1, 25, time.Millisecond)
}

func emptyPage() result.Page {
	return result.NewPage(nil, 0, 1, 25, 0)
}

func newTestService(t *testing.T, rel, doc *mockEngine) (*Service, *mockSuggester) {
	t.Helper()
	sug := &mockSuggester{}
	svc := New(rel, doc, sug, &mockSimilar{}, cache.New(), zap.NewNop())
	return svc, sug
}

func mustRequest(t *testing.T, m mode.Mode, e engine.Engine) *request.Request {
	t.Helper()
	r, err := request.New("", "healthcare", filter.Filters{}, m, e, 1, 25)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}
