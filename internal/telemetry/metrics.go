package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the set of agentlens-specific Prometheus metrics,
// grounded on alex's internal/observability.ContextMetrics (gauges and
// counters registered against an injected *prometheus.Registry rather
// than the global default one, so tests can use an isolated registry).
type Collector struct {
	eventsProcessed *prometheus.CounterVec
	tokensTotal     *prometheus.GaugeVec
	compactions     *prometheus.CounterVec
	truncations     *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	burnRate        *prometheus.GaugeVec
	readLatency     *prometheus.HistogramVec
}

// NewCollector registers and returns a Collector against reg.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentlens",
			Name:      "events_processed_total",
			Help:      "Session events processed by the aggregator, by provider.",
		}, []string{"provider"}),
		tokensTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "agentlens",
			Name:      "tokens_total",
			Help:      "Cumulative token totals per session, by provider and token kind.",
		}, []string{"provider", "kind"}),
		compactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentlens",
			Name:      "compactions_total",
			Help:      "Context compaction events observed, by provider.",
		}, []string{"provider"}),
		truncations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentlens",
			Name:      "truncations_total",
			Help:      "Conversation truncation events observed, by provider.",
		}, []string{"provider"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "agentlens",
			Name:      "active_sessions",
			Help:      "Number of session cells currently held in the LRU cache.",
		}),
		burnRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "agentlens",
			Name:      "burn_rate_tokens_per_minute",
			Help:      "Most recent burn-rate sample, by provider.",
		}, []string{"provider"}),
		readLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentlens",
			Name:      "reader_read_seconds",
			Help:      "Duration of one reader.ReadNew call, by reader kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	reg.MustRegister(c.eventsProcessed, c.tokensTotal, c.compactions, c.truncations, c.activeSessions, c.burnRate, c.readLatency)
	return c
}

// RecordEvent increments the processed-event counter for providerID.
func (c *Collector) RecordEvent(providerID string) {
	c.eventsProcessed.WithLabelValues(providerID).Inc()
}

// SetTokens records the current cumulative token count of kind (input,
// output, cacheRead, cacheWrite) for providerID.
func (c *Collector) SetTokens(providerID, kind string, total int64) {
	c.tokensTotal.WithLabelValues(providerID, kind).Set(float64(total))
}

// RecordCompaction increments the compaction counter for providerID.
func (c *Collector) RecordCompaction(providerID string) {
	c.compactions.WithLabelValues(providerID).Inc()
}

// RecordTruncation increments the truncation counter for providerID.
func (c *Collector) RecordTruncation(providerID string) {
	c.truncations.WithLabelValues(providerID).Inc()
}

// SetActiveSessions reports the current session-cell cache size.
func (c *Collector) SetActiveSessions(n int) {
	c.activeSessions.Set(float64(n))
}

// RecordBurnRate reports the latest burn-rate sample (tokens/minute) for
// providerID.
func (c *Collector) RecordBurnRate(providerID string, tokensPerMinute float64) {
	c.burnRate.WithLabelValues(providerID).Set(tokensPerMinute)
}

// ObserveReadLatency records how long one reader.ReadNew call took.
func (c *Collector) ObserveReadLatency(kind string, d time.Duration) {
	c.readLatency.WithLabelValues(kind).Observe(d.Seconds())
}
