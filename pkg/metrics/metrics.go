// Package metrics provides Prometheus collectors for ranking requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricRankTotal    = "revrank_rank_total"
	MetricRankErrors   = "revrank_rank_errors_total"
	MetricRankDuration = "revrank_rank_duration_seconds"
	MetricRankedItems  = "revrank_ranked_items_total"
	MetricScoreTotal   = "revrank_score_total"

	labelStrategy = "strategy"
)

// Metrics holds the ranking collectors. Safe for concurrent use.
type Metrics struct {
	rankTotal    *prometheus.CounterVec
	rankErrors   *prometheus.CounterVec
	rankDuration *prometheus.HistogramVec
	rankedItems  *prometheus.CounterVec
	scoreTotal   *prometheus.CounterVec
}

// New creates unregistered collectors; call Register to expose them.
func New() *Metrics {
	return &Metrics{
		rankTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRankTotal,
			Help: "Total number of ranking passes",
		}, []string{labelStrategy}),
		rankErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRankErrors,
			Help: "Total number of ranking passes that failed",
		}, []string{labelStrategy}),
		rankDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Histogram of ranking pass duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{labelStrategy}),
		rankedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRankedItems,
			Help: "Total number of items scored by ranking passes",
		}, []string{labelStrategy}),
		scoreTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricScoreTotal,
			Help: "Total number of single vote pair scoring requests",
		}, []string{labelStrategy}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRank records one ranking pass.
func (m *Metrics) ObserveRank(strategy string, items int, d time.Duration, err error) {
	m.rankTotal.WithLabelValues(strategy).Inc()
	m.rankDuration.WithLabelValues(strategy).Observe(d.Seconds())
	if err != nil {
		m.rankErrors.WithLabelValues(strategy).Inc()
		return
	}
	m.rankedItems.WithLabelValues(strategy).Add(float64(items))
}

// IncScore counts a single pair scoring request.
func (m *Metrics) IncScore(strategy string) {
	m.scoreTotal.WithLabelValues(strategy).Inc()
}

// Collectors returns all collectors, mostly for tests.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rankTotal,
		m.rankErrors,
		m.rankDuration,
		m.rankedItems,
		m.scoreTotal,
	}
}
