package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the lending API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can serve it.
	Registry *prometheus.Registry

	requestDuration     *prometheus.HistogramVec
	negotiationsTotal   *prometheus.CounterVec
	proposalsTotal      *prometheus.CounterVec
	expiredNegotiations prometheus.Counter
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	feedErrors          *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids
// "duplicate collector" panics when NewMetrics is called more than
// once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lending_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		negotiationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_negotiations_total",
				Help: "Negotiation state transitions by resulting status.",
			},
			[]string{"status"},
		),
		proposalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_proposals_total",
				Help: "Proposals submitted by author role.",
			},
			[]string{"role"},
		),
		expiredNegotiations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_expired_negotiations_total",
				Help: "Negotiations cancelled by the expiry sweeper.",
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		feedErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_feed_errors_total",
				Help: "Errors talking to the external negotiation feed.",
			},
			[]string{"operation"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrNegotiation counts a negotiation transition into the given status.
func (m *Metrics) IncrNegotiation(status string) {
	m.negotiationsTotal.WithLabelValues(status).Inc()
}

// IncrProposal counts a submitted proposal by author role.
func (m *Metrics) IncrProposal(role string) {
	m.proposalsTotal.WithLabelValues(role).Inc()
}

// IncrExpired counts a negotiation closed by the expiry sweeper.
func (m *Metrics) IncrExpired() {
	m.expiredNegotiations.Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrFeedError increments the external feed error counter.
func (m *Metrics) IncrFeedError(operation string) {
	m.feedErrors.WithLabelValues(operation).Inc()
}

// PlatformSnapshot is a compact operational summary for the
// GET /v1/metrics/platform endpoint.
type PlatformSnapshot struct {
	NegotiationsCreated  int64   `json:"negotiations_created"`
	NegotiationsAccepted int64   `json:"negotiations_accepted"`
	NegotiationsExpired  int64   `json:"negotiations_expired"`
	ProposalsSubmitted   int64   `json:"proposals_submitted"`
	CacheHitRate         float64 `json:"cache_hit_rate"`
}

// Snapshot gathers current counter values.
// Note: Prometheus counters expose cumulative values.
func (m *Metrics) Snapshot() *PlatformSnapshot {
	created := getCounterValue(m.negotiationsTotal, "pendente")
	accepted := getCounterValue(m.negotiationsTotal, "aceita")
	proposals := getCounterValue(m.proposalsTotal, "borrower") +
		getCounterValue(m.proposalsTotal, "investor")

	hits := getCounterValue(m.cacheHits, "party")
	misses := getCounterValue(m.cacheMisses, "party")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	expired := float64(0)
	d := &dto.Metric{}
	if err := m.expiredNegotiations.Write(d); err == nil && d.Counter != nil && d.Counter.Value != nil {
		expired = *d.Counter.Value
	}

	return &PlatformSnapshot{
		NegotiationsCreated:  int64(created),
		NegotiationsAccepted: int64(accepted),
		NegotiationsExpired:  int64(expired),
		ProposalsSubmitted:   int64(proposals),
		CacheHitRate:         hitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec
// for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
