// Package httpapi exposes the search gateway over a chi router.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/civicscope/transearch/internal/domain"
	"github.com/civicscope/transearch/internal/domain/search/engine"
	"github.com/civicscope/transearch/internal/domain/search/filter"
	"github.com/civicscope/transearch/internal/domain/search/mode"
	"github.com/civicscope/transearch/internal/domain/search/request"
	interpretuc "github.com/civicscope/transearch/internal/usecase/interpret"
	searchuc "github.com/civicscope/transearch/internal/usecase/search"
	"github.com/civicscope/transearch/internal/version"
)

// error codes returned in the JSON error body.
const (
	codeBadRequest         = "bad_request"
	codeQueryTooVague      = "query_too_vague"
	codeFilterIncompatible = "filter_incompatible"
	codeNotFound           = "not_found"
	codeEngineUnavailable  = "engine_unavailable"
	codeInternalError      = "internal_error"
)

// Pinger reports backing-store health. Nil checkers are skipped.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server implements the gateway HTTP API.
type Server struct {
	search    *searchuc.Service
	interpret *interpretuc.Service
	store     Pinger
	logger    *zap.Logger
}

// NewServer creates the HTTP API server. store may be nil when the shared
// cache tier is disabled.
func NewServer(
	search *searchuc.Service,
	interpret *interpretuc.Service,
	store Pinger,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{search: search, interpret: interpret, store: store, logger: logger}
}

// Routes mounts the API onto r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/interpret", s.handleInterpret)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/similar/{id}", s.handleSimilar)
		r.Post("/invalidate", s.handleInvalidate)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type itemDTO struct {
	ID         string     `json:"id"`
	Speaker    string     `json:"speaker,omitempty"`
	Text       string     `json:"text,omitempty"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
	Sentiment  *float64   `json:"sentiment,omitempty"`
	Score      float64    `json:"score"`
}

type searchResponse struct {
	Items    []itemDTO `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	TookMS   int64     `json:"took_ms"`
	Engine   string    `json:"engine"`
	Mode     string    `json:"mode"`
}

type interpretResponse struct {
	Query   string            `json:"query"`
	Mode    string            `json:"mode"`
	Filters map[string]string `json:"filters"`
}

// handleSearch handles GET /v1/search. With interpret=true the q parameter
// is treated as free text and run through the interpreter first.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	raw := strings.TrimSpace(q.Get("q"))
	query := raw
	f := filter.Filters{}
	m := mode.Mode(q.Get("mode"))

	if parseBool(q.Get("interpret")) {
		in, err := s.interpret.Interpret(raw)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		query, f, m = in.Query, in.Filters, in.Mode
	} else {
		var err error
		f, err = filtersFromQuery(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
	}

	req, err := request.New(
		raw, query, f,
		m, engine.Engine(q.Get("engine")),
		parseInt(q.Get("page")), parseInt(q.Get("page_size")),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	page, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]itemDTO, 0, len(page.Items()))
	for _, it := range page.Items() {
		items = append(items, itemDTO{
			ID:         it.ID(),
			Speaker:    it.Speaker(),
			Text:       it.Text(),
			RecordedAt: it.RecordedAt(),
			Sentiment:  it.Sentiment(),
			Score:      it.Score(),
		})
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Items:    items,
		Total:    page.Total(),
		Page:     page.Page(),
		PageSize: page.PageSize(),
		TookMS:   page.Took().Milliseconds(),
		Engine:   string(req.Engine()),
		Mode:     string(req.Mode()),
	})
}

// handleInterpret handles GET /v1/interpret: free text in, normalized
// query plus extracted filters out, nothing dispatched.
func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	in, err := s.interpret.Interpret(r.URL.Query().Get("q"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	filters := map[string]string{}
	if v := in.Filters.Speaker(); v != "" {
		filters["speaker"] = v
	}
	if v := in.Filters.Topic(); v != "" {
		filters["topic"] = v
	}
	if v := in.Filters.DateFrom(); v != nil {
		filters["date_from"] = v.Format(time.DateOnly)
	}
	if v := in.Filters.DateTo(); v != nil {
		filters["date_to"] = v.Format(time.DateOnly)
	}
	if v := in.Filters.SentimentMin(); v != nil {
		filters["sentiment_min"] = strconv.FormatFloat(*v, 'g', -1, 64)
	}
	if v := in.Filters.SentimentMax(); v != nil {
		filters["sentiment_max"] = strconv.FormatFloat(*v, 'g', -1, 64)
	}

	writeJSON(w, http.StatusOK, interpretResponse{
		Query:   in.Query,
		Mode:    string(in.Mode),
		Filters: filters,
	})
}

// handleSuggest handles GET /v1/suggest.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseInt(q.Get("limit"))
	if limit <= 0 || limit > 20 {
		limit = 10
	}

	suggestions, err := s.search.Suggest(r.Context(), q.Get("q"), q.Get("type"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// handleSimilar handles GET /v1/similar/{id}.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	page, err := s.search.Similar(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]itemDTO, 0, len(page.Items()))
	for _, it := range page.Items() {
		items = append(items, itemDTO{
			ID: it.ID(), Speaker: it.Speaker(), Text: it.Text(),
			RecordedAt: it.RecordedAt(), Sentiment: it.Sentiment(), Score: it.Score(),
		})
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Items: items, Total: page.Total(), Page: page.Page(),
		PageSize: page.PageSize(), TookMS: page.Took().Milliseconds(),
	})
}

// handleInvalidate handles POST /v1/invalidate. An optional prefix narrows
// the purge to keys starting with it; the shared tier is always purged
// whole.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prefix string `json:"prefix"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	var match func(string) bool
	if body.Prefix != "" {
		prefix := body.Prefix
		match = func(key string) bool { return strings.HasPrefix(key, prefix) }
	}

	removed := s.search.Invalidate(r.Context(), match)
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, httpStatus, map[string]string{
		"status":  status,
		"version": version.Version,
	})
}

// handleDomainError maps domain sentinels to HTTP statuses.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQueryTooVague):
		writeError(w, http.StatusBadRequest, codeQueryTooVague,
			"query is too vague; add more specific terms")
	case errors.Is(err, domain.ErrFilterIncompatible):
		writeError(w, http.StatusBadRequest, codeFilterIncompatible, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	case errors.Is(err, domain.ErrEngineUnavailable):
		writeError(w, http.StatusBadGateway, codeEngineUnavailable,
			"search backends are unavailable")
	default:
		s.logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func filtersFromQuery(q map[string][]string) (filter.Filters, error) {
	get := func(name string) string {
		if vs := q[name]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	var dateFrom, dateTo *time.Time
	for name, dst := range map[string]**time.Time{"date_from": &dateFrom, "date_to": &dateTo} {
		if v := get(name); v != "" {
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				return filter.Filters{}, errors.New(name + " must be YYYY-MM-DD")
			}
			*dst = &t
		}
	}

	var sentimentMin, sentimentMax, threshold *float64
	for name, dst := range map[string]**float64{
		"sentiment_min": &sentimentMin,
		"sentiment_max": &sentimentMax,
		"threshold":     &threshold,
	} {
		if v := get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return filter.Filters{}, errors.New(name + " must be a number")
			}
			*dst = &f
		}
	}

	return filter.New(
		get("speaker"), get("topic"), get("dataset"),
		dateFrom, dateTo, sentimentMin, sentimentMax, threshold,
	)
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
