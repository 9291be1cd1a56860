package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront records checkout, status transition and backend call metrics.
// A nil *Storefront is valid and records nothing.
type Storefront struct {
	checkouts   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	backend     *prometheus.HistogramVec
	cartOps     *prometheus.CounterVec
	cartLines   prometheus.Histogram
	http        *prometheus.HistogramVec
}

// NewStorefront registers the storefront metrics on the provided registerer.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gocart",
		Name:      "checkout_total",
		Help:      "Checkout submissions by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gocart",
		Name:      "order_transition_total",
		Help:      "Vendor order status transitions by target status and outcome.",
	}, []string{"target", "outcome"})
	backend := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gocart",
		Name:      "backend_request_duration_seconds",
		Help:      "Latency of order backend calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gocart",
		Name:      "cart_mutation_total",
		Help:      "Cart mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	cartLines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gocart",
		Name:      "cart_lines",
		Help:      "Distinct products in a cart after each committed mutation.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gocart",
		Name:      "http_request_duration_seconds",
		Help:      "Latency of storefront API requests by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(checkouts, transitions, backend, cartOps, cartLines, httpDur)
	return &Storefront{
		checkouts:   checkouts,
		transitions: transitions,
		backend:     backend,
		cartOps:     cartOps,
		cartLines:   cartLines,
		http:        httpDur,
	}
}

func (s *Storefront) IncCheckout(outcome string) {
	if s == nil || s.checkouts == nil {
		return
	}
	s.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (s *Storefront) IncTransition(target, outcome string) {
	if s == nil || s.transitions == nil {
		return
	}
	s.transitions.WithLabelValues(normalizeLabel(target), normalizeLabel(outcome)).Inc()
}

// ObserveBackend records the duration of a single backend call.
func (s *Storefront) ObserveBackend(operation, outcome string, d time.Duration) {
	if s == nil || s.backend == nil {
		return
	}
	s.backend.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Observe(d.Seconds())
}

func (s *Storefront) IncCartMutation(operation, outcome string) {
	if s == nil || s.cartOps == nil {
		return
	}
	s.cartOps.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// ObserveCartLines records the line count of a freshly committed cart.
func (s *Storefront) ObserveCartLines(lines int) {
	if s == nil || s.cartLines == nil {
		return
	}
	s.cartLines.Observe(float64(lines))
}

func (s *Storefront) ObserveHTTP(method, route, status string, d time.Duration) {
	if s == nil || s.http == nil {
		return
	}
	s.http.WithLabelValues(method, normalizeLabel(route), normalizeLabel(status)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
