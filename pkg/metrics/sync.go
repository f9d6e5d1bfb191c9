package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records background mirror calls issued by the shopper client.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	pending  *prometheus.GaugeVec
}

// NewSyncMetrics registers the sync metrics on reg. A nil registerer yields a
// recorder whose methods are no-ops.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopper_sync_duration_seconds",
		Help:    "Duration of mirror sync calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopper_sync_success_total",
		Help: "Mirror sync calls that completed.",
	}, []string{"op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopper_sync_failure_total",
		Help: "Mirror sync calls that failed and were dropped.",
	}, []string{"op"})
	pending := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shopper_sync_pending",
		Help: "Queued mirror sync tasks per namespace (cart, wishlist).",
	}, []string{"namespace"})
	reg.MustRegister(duration, success, failure, pending)
	return &SyncMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		pending:  pending,
	}
}

// Observe records one finished call.
func (s *SyncMetrics) Observe(op string, took time.Duration, err error) {
	if s == nil || s.duration == nil {
		return
	}
	op = normalizeLabel(op)
	s.duration.WithLabelValues(op).Observe(took.Seconds())
	if err != nil {
		s.failure.WithLabelValues(op).Inc()
		return
	}
	s.success.WithLabelValues(op).Inc()
}

// AddPending adjusts the queued task gauge for the namespace of op, so
// "cart.add" counts under "cart". Partition keys carry emails and never
// become labels.
func (s *SyncMetrics) AddPending(op string, delta float64) {
	if s == nil || s.pending == nil {
		return
	}
	namespace, _, _ := strings.Cut(op, ".")
	s.pending.WithLabelValues(normalizeLabel(namespace)).Add(delta)
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
