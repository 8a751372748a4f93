package transearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/civicscope/transearch/internal/domain"
	"github.com/civicscope/transearch/internal/domain/search/request"
	"github.com/civicscope/transearch/internal/domain/search/result"
)

// stubEngine answers every search with a fixed page, optionally delayed
// or gated per call.
type stubEngine struct {
	mu      sync.Mutex
	page    result.Page
	pageFor func(query string) result.Page
	err     error
	delay   func(query string) time.Duration
	calls   []string
}

func (s *stubEngine) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req.Query())
	delay := time.Duration(0)
	if s.delay != nil {
		delay = s.delay(req.Query())
	}
	page, err := s.page, s.err
	if s.pageFor != nil {
		page = s.pageFor(req.Query())
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return result.Page{}, ctx.Err()
		}
	}
	return page, err
}

func (s *stubEngine) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubSuggester struct{ out []string }

func (s *stubSuggester) Suggest(context.Context, string, string, int) ([]string, error) {
	return s.out, nil
}

type stubSimilar struct{ page result.Page }

func (s *stubSimilar) Similar(context.Context, string, int) (result.Page, error) {
	return s.page, nil
}

func fixedPage(total int) result.Page {
	items := make([]result.Item, 0, total)
	for i := 0; i < total; i++ {
		items = append(items, result.NewItem("seg", "alice", "text", nil, nil, 0.5))
	}
	return result.NewPage(items, total, 1, 25, time.Millisecond)
}

func newStubClient(t *testing.T, rel *stubEngine, opts ...Option) *Client {
	t.Helper()
	all := append([]Option{
		WithEngines(rel, &stubEngine{}),
		WithSuggester(&stubSuggester{out: []string{"healthcare"}}),
		WithSimilarityFinder(&stubSimilar{page: fixedPage(1)}),
	}, opts...)
	c, err := New(all...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNewRequiresBackends(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without backends")
	}
	if _, err := New(WithRelational("http://localhost:8081")); err == nil {
		t.Fatal("expected error without document backend")
	}
}

func TestQueryInterpretsAndSearches(t *testing.T) {
	rel := &stubEngine{page: fixedPage(2)}
	c := newStubClient(t, rel)

	page, err := c.Query(context.Background(), "healthcare speeches by Alice")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if page.Total() != 2 {
		t.Errorf("Total = %d, want 2", page.Total())
	}
	// The interpreter stripped the speaker phrase before dispatch.
	rel.mu.Lock()
	got := rel.calls[0]
	rel.mu.Unlock()
	if got != "healthcare speeches" {
		t.Errorf("dispatched query = %q, want %q", got, "healthcare speeches")
	}
}

func TestQueryTooVague(t *testing.T) {
	c := newStubClient(t, &stubEngine{page: fixedPage(1)})

	_, err := c.Query(context.Background(), "by Alice")
	if !errors.Is(err, domain.ErrQueryTooVague) {
		t.Errorf("err = %v, want ErrQueryTooVague", err)
	}
}

func TestBuilderBuildsValidRequest(t *testing.T) {
	rel := &stubEngine{page: fixedPage(1)}
	c := newStubClient(t, rel)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	req, err := c.NewSearch("inflation").
		Mode(ModeSemantic).
		Speaker("Sanders").
		Between(from, to).
		SentimentAbove(0.2).
		Threshold(0.7).
		Page(2).
		PageSize(50).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if req.Query() != "inflation" || req.Mode() != ModeSemantic {
		t.Errorf("unexpected request: %q %q", req.Query(), req.Mode())
	}
	if req.Filters().Speaker() != "sanders" {
		t.Errorf("speaker = %q, want sanders", req.Filters().Speaker())
	}
	if req.Page() != 2 || req.PageSize() != 50 {
		t.Errorf("pagination = %d/%d, want 2/50", req.Page(), req.PageSize())
	}
}

func TestBuilderRejectsThresholdOutsideSemantic(t *testing.T) {
	c := newStubClient(t, &stubEngine{page: fixedPage(1)})

	_, err := c.NewSearch("inflation").Mode(ModeLexical).Threshold(0.7).Build()
	if !errors.Is(err, domain.ErrFilterIncompatible) {
		t.Errorf("err = %v, want ErrFilterIncompatible", err)
	}
}

func TestBuilderDo(t *testing.T) {
	rel := &stubEngine{page: fixedPage(3)}
	c := newStubClient(t, rel)

	page, err := c.NewSearch("inflation").Do(context.Background())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if page.Total() != 3 {
		t.Errorf("Total = %d, want 3", page.Total())
	}
}

func TestInvalidate(t *testing.T) {
	rel := &stubEngine{page: fixedPage(1)}
	c := newStubClient(t, rel)
	ctx := context.Background()

	if _, err := c.NewSearch("inflation").Do(ctx); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if _, err := c.NewSearch("inflation").Do(ctx); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if rel.callCount() != 1 {
		t.Fatalf("engine calls = %d, want 1 before invalidation", rel.callCount())
	}

	if removed := c.Invalidate(ctx, nil); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := c.NewSearch("inflation").Do(ctx); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if rel.callCount() != 2 {
		t.Errorf("engine calls = %d, want 2 after invalidation", rel.callCount())
	}
}

func TestSuggestAndSimilar(t *testing.T) {
	c := newStubClient(t, &stubEngine{page: fixedPage(1)})
	ctx := context.Background()

	out, err := c.Suggest(ctx, "heal", "topic", 5)
	if err != nil || len(out) != 1 {
		t.Errorf("Suggest = (%v, %v), want one suggestion", out, err)
	}

	page, err := c.Similar(ctx, "seg-1", 5)
	if err != nil || page.Total() != 1 {
		t.Errorf("Similar = (total %d, %v), want total 1", page.Total(), err)
	}
}

func TestClientAgainstHTTPBackends(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"seg-1","speaker":"alice","score":0.9}],"total":1}`))
	}))
	defer backend.Close()

	c, err := New(
		WithRelational(backend.URL),
		WithDocument(backend.URL, "segments"),
		WithHTTPClient(backend.Client()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	page, err := c.NewSearch("healthcare").Do(context.Background())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if page.Total() != 1 {
		t.Errorf("Total = %d, want 1", page.Total())
	}
	items := page.Items()
	if len(items) != 1 || items[0].Speaker() != "alice" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestPlanRenderFacade(t *testing.T) {
	page := fixedPage(5)
	plan := PlanRender(&page, nil, nil, nil)
	if plan.Kind != RenderFull || len(plan.Rows) != 5 {
		t.Errorf("plan = %v with %d rows, want full/5", plan.Kind, len(plan.Rows))
	}
}
