package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefront(reg)

	m.IncCheckout("success")
	m.IncCheckout("success")
	m.IncCheckout("transport")
	m.IncTransition("completed", "ok")
	m.IncCartMutation("add", "")
	m.ObserveBackend("create_order", "ok", 120*time.Millisecond)
	m.ObserveHTTP("POST", "/api/v1/checkout", "201", 40*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "gocart_checkout_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch checkout: %v", err)
	} else if got != 2 {
		t.Fatalf("expected checkout success=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "gocart_order_transition_total", "target", "completed"); err != nil {
		t.Fatalf("fetch transition: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transition=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "gocart_cart_mutation_total", "outcome", "unknown"); err != nil {
		t.Fatalf("fetch cart mutation: %v", err)
	} else if got != 1 {
		t.Fatalf("expected normalized outcome label, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "gocart_backend_request_duration_seconds", "operation", "create_order"); err != nil {
		t.Fatalf("fetch backend duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "gocart_http_request_duration_seconds", "route", "/api/v1/checkout"); err != nil {
		t.Fatalf("fetch http duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected http duration sum > 0, got %f", got)
	}
}

func TestStorefrontObservesCartLines(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefront(reg)

	m.ObserveCartLines(2)
	m.ObserveCartLines(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "gocart_cart_lines")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("cart lines histogram not exported")
	}
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 || h.GetSampleSum() != 5 {
		t.Fatalf("unexpected histogram count=%d sum=%f", h.GetSampleCount(), h.GetSampleSum())
	}
}

func TestNilStorefrontIsSafe(t *testing.T) {
	var m *Storefront
	m.ObserveCartLines(1)
	m.IncCheckout("success")
	m.IncTransition("cancelled", "ok")
	m.ObserveBackend("list_orders", "ok", time.Second)
	m.ObserveHTTP("GET", "/health/live", "200", time.Millisecond)

	NewStorefront(nil).IncCheckout("success")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
