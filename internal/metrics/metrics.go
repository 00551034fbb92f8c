package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry groups the service metrics. A nil *Registry is valid and records
// nothing.
type Registry struct {
	reg *prometheus.Registry

	OrdersTotal        *prometheus.CounterVec
	PaymentAttempts    *prometheus.CounterVec
	FulfillmentSeconds prometheus.Histogram
	ListDegraded       *prometheus.CounterVec
	ProjectedEvents    prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_orders_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_payment_attempts_total",
		Help: "Payment gateway attempts by attempt number and result.",
	}, []string{"attempt", "result"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fulfillment_duration_seconds",
		Help:    "Wall time of one submit, lock to re-read.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "query_list_degraded_total",
		Help: "Listings that swallowed an internal error and returned empty.",
	}, []string{"entity"})
	projected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "projector_events_applied_total",
		Help: "OrderFinalized events written to the view cache.",
	})

	r.MustRegister(orders, attempts, latency, degraded, projected)
	return &Registry{
		reg:                r,
		OrdersTotal:        orders,
		PaymentAttempts:    attempts,
		FulfillmentSeconds: latency,
		ListDegraded:       degraded,
		ProjectedEvents:    projected,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) Order(outcome string, started time.Time) {
	if r == nil {
		return
	}
	r.OrdersTotal.WithLabelValues(outcome).Inc()
	r.FulfillmentSeconds.Observe(time.Since(started).Seconds())
}

func (r *Registry) PaymentAttempt(attempt int, ok bool) {
	if r == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	r.PaymentAttempts.WithLabelValues(strconv.Itoa(attempt), result).Inc()
}

func (r *Registry) Degraded(entity string, _ error) {
	if r == nil {
		return
	}
	r.ListDegraded.WithLabelValues(entity).Inc()
}

func (r *Registry) Projected() {
	if r == nil {
		return
	}
	r.ProjectedEvents.Inc()
}
