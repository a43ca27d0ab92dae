package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PollerMetrics records metadata for the background queue pollers.
type PollerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	growth   *prometheus.CounterVec
}

// NewPollerMetrics registers the poller metrics on the provided registerer.
func NewPollerMetrics(reg prometheus.Registerer) *PollerMetrics {
	if reg == nil {
		return &PollerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poller_duration_seconds",
		Help:    "Duration of queue poll cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"queue"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_success",
		Help: "Successful queue poll cycles.",
	}, []string{"queue"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_failure",
		Help: "Failed queue poll cycles.",
	}, []string{"queue"})
	growth := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_queue_growth",
		Help: "Poll cycles that observed queue growth.",
	}, []string{"queue"})
	reg.MustRegister(duration, success, failure, growth)
	return &PollerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		growth:   growth,
	}
}

// ObserveDuration records the duration for the named queue.
func (p *PollerMetrics) ObserveDuration(queue string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(queue)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named queue.
func (p *PollerMetrics) IncSuccess(queue string) {
	if p == nil || p.success == nil {
		return
	}
	p.success.WithLabelValues(normalizeLabel(queue)).Inc()
}

// IncFailure increments the failure counter for the named queue.
func (p *PollerMetrics) IncFailure(queue string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(queue)).Inc()
}

// IncGrowth increments the growth counter for the named queue.
func (p *PollerMetrics) IncGrowth(queue string) {
	if p == nil || p.growth == nil {
		return
	}
	p.growth.WithLabelValues(normalizeLabel(queue)).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
