package restapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicscope/transearch/internal/domain"
	"github.com/civicscope/transearch/internal/domain/search/engine"
	"github.com/civicscope/transearch/internal/domain/search/filter"
	"github.com/civicscope/transearch/internal/domain/search/mode"
	"github.com/civicscope/transearch/internal/domain/search/request"
)

func mustRequest(t *testing.T, m mode.Mode, f filter.Filters) *request.Request {
	t.Helper()
	r, err := request.New("", "healthcare reform", f, m, engine.Relational, 2, 10)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}

func TestRelationalSearch_HybridPathAndParams(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "seg-1", "speaker": "Biden", "text": "on healthcare", "score": 0.9},
				{"id": "seg-2"}
			],
			"total": 42, "page": 2, "page_size": 10, "took_ms": 17
		}`))
	}))
	defer srv.Close()

	client, err := NewRelationalClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewRelationalClient: %v", err)
	}

	f, _ := filter.New("biden", "", "", nil, nil, nil, nil, nil)
	page, err := client.Search(context.Background(), mustRequest(t, mode.Hybrid, f))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/search" {
		t.Errorf("path = %q, want /search", gotPath)
	}
	for k, want := range map[string]string{
		"q": "healthcare reform", "mode": "hybrid", "speaker": "biden",
		"page": "2", "page_size": "10",
	} {
		if len(gotQuery[k]) == 0 || gotQuery[k][0] != want {
			t.Errorf("query[%s] = %v, want %q", k, gotQuery[k], want)
		}
	}

	if page.Total() != 42 {
		t.Errorf("total = %d, want 42", page.Total())
	}
	if len(page.Items()) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items()))
	}
	// Optional fields absent on seg-2.
	second := page.Items()[1]
	if second.ID() != "seg-2" || second.Speaker() != "" || second.Sentiment() != nil {
		t.Error("absent display fields must decode to zero values")
	}
}

func TestRelationalSearch_SemanticPathAndThreshold(t *testing.T) {
	var gotPath, gotThreshold string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotThreshold = r.URL.Query().Get("threshold")
		_, _ = w.Write([]byte(`{"items": [], "total": 0}`))
	}))
	defer srv.Close()

	client, err := NewRelationalClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewRelationalClient: %v", err)
	}

	th := 0.75
	f, _ := filter.New("", "", "", nil, nil, nil, nil, &th)
	if _, err := client.Search(context.Background(), mustRequest(t, mode.Semantic, f)); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/search/semantic" {
		t.Errorf("path = %q, want /search/semantic", gotPath)
	}
	if gotThreshold != "0.75" {
		t.Errorf("threshold = %q, want 0.75", gotThreshold)
	}
}

func TestRelationalSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/suggestions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("type"); got != "speaker" {
			t.Errorf("type = %q, want speaker", got)
		}
		_, _ = w.Write([]byte(`{"suggestions": ["biden", "blinken"]}`))
	}))
	defer srv.Close()

	client, err := NewRelationalClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewRelationalClient: %v", err)
	}

	got, err := client.Suggest(context.Background(), "bi", "speaker", 5)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 2 || got[0] != "biden" {
		t.Errorf("Suggest = %v", got)
	}
}

func TestRelationalSimilar_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewRelationalClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewRelationalClient: %v", err)
	}

	_, err = client.Similar(context.Background(), "missing", 10)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestServerError_MapsToEngineUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewRelationalClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewRelationalClient: %v", err)
	}

	_, err = client.Search(context.Background(), mustRequest(t, mode.Hybrid, filter.Filters{}))
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("error = %v, want ErrEngineUnavailable", err)
	}
	var statusErr *domain.BackendStatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusBadGateway {
		t.Errorf("error = %v, want BackendStatusError with 502", err)
	}
}

func TestDocumentSearch_Params(t *testing.T) {
	var gotQuery map[string][]string
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"items": [{"id": "m-1"}], "total": 1, "took_ms": 3}`))
	}))
	defer srv.Close()

	client, err := NewDocumentClient(Config{BaseURL: srv.URL}, "")
	if err != nil {
		t.Fatalf("NewDocumentClient: %v", err)
	}

	page, err := client.Search(context.Background(), mustRequest(t, mode.Lexical, filter.Filters{}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/search/meili" {
		t.Errorf("path = %q, want /search/meili", gotPath)
	}
	if got := gotQuery["index"]; len(got) == 0 || got[0] != defaultIndex {
		t.Errorf("index = %v, want %q", got, defaultIndex)
	}
	if got := gotQuery["mode"]; len(got) == 0 || got[0] != "lexical" {
		t.Errorf("mode = %v, want lexical", got)
	}
	if page.Total() != 1 {
		t.Errorf("total = %d, want 1", page.Total())
	}
	// page/page_size echo the request even when the backend omits them
	if page.Page() != 2 || page.PageSize() != 10 {
		t.Errorf("pagination = %d/%d, want 2/10", page.Page(), page.PageSize())
	}
}

func TestConnectionError_MapsToEngineUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections immediately

	client, err := NewRelationalClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewRelationalClient: %v", err)
	}

	_, err = client.Search(context.Background(), mustRequest(t, mode.Hybrid, filter.Filters{}))
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("error = %v, want ErrEngineUnavailable", err)
	}
}
