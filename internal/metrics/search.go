package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search holds the search-path Prometheus collectors.
type Search struct {
	requestsTotal  *prometheus.CounterVec
	fallbacksTotal *prometheus.CounterVec
	cacheTotal     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
}

// NewSearch creates the search collectors. Register must be called once
// from main (no init()).
func NewSearch() *Search {
	return &Search{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "transearch",
				Name:      "search_requests_total",
				Help:      "Search dispatches by engine, mode, and outcome",
			},
			[]string{"engine", "mode", "outcome"},
		),
		fallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "transearch",
				Name:      "search_fallbacks_total",
				Help:      "Fallback transitions by reason",
			},
			[]string{"reason"},
		),
		cacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "transearch",
				Name:      "result_cache_total",
				Help:      "Result cache lookups by category and result",
			},
			[]string{"category", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "transearch",
				Name:      "search_backend_duration_seconds",
				Help:      "Backend search call duration in seconds",
				Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"engine", "mode"},
		),
	}
}

// Register registers the collectors with the given registerer.
func (s *Search) Register(reg prometheus.Registerer) {
	reg.MustRegister(s.requestsTotal, s.fallbacksTotal, s.cacheTotal, s.duration)
}

// ObserveSearch records one served search.
func (s *Search) ObserveSearch(engine, mode, outcome string) {
	s.requestsTotal.WithLabelValues(engine, mode, outcome).Inc()
	switch outcome {
	case "mode_fallback", "engine_fallback":
		s.fallbacksTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveCache records one cache lookup; wired as the cache observer hook.
func (s *Search) ObserveCache(category, result string) {
	s.cacheTotal.WithLabelValues(category, result).Inc()
}

// ObserveDuration records one backend call duration.
func (s *Search) ObserveDuration(engine, mode string, seconds float64) {
	s.duration.WithLabelValues(engine, mode).Observe(seconds)
}
