package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks checkout attempts end to end.
type CheckoutMetrics struct {
	duration  *prometheus.HistogramVec
	completed prometheus.Counter
	failed    *prometheus.CounterVec
	orders    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_completed",
		Help: "Checkouts that produced orders.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed",
		Help: "Checkouts rejected or aborted, by stage.",
	}, []string{"stage"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created",
		Help: "Orders submitted upstream, one per vendor per checkout.",
	})
	reg.MustRegister(duration, completed, failed, orders)
	return &CheckoutMetrics{
		duration:  duration,
		completed: completed,
		failed:    failed,
		orders:    orders,
	}
}

// ObserveDuration records how long a checkout attempt took.
func (c *CheckoutMetrics) ObserveDuration(paymentMethod string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(paymentMethod)).Observe(duration.Seconds())
}

// IncCompleted increments the completed-checkout counter.
func (c *CheckoutMetrics) IncCompleted() {
	if c == nil || c.completed == nil {
		return
	}
	c.completed.Inc()
}

// IncFailed increments the failed-checkout counter for the given stage.
func (c *CheckoutMetrics) IncFailed(stage string) {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.WithLabelValues(normalizeLabel(stage)).Inc()
}

// AddOrders counts orders submitted upstream.
func (c *CheckoutMetrics) AddOrders(n int) {
	if c == nil || c.orders == nil || n <= 0 {
		return
	}
	c.orders.Add(float64(n))
}
