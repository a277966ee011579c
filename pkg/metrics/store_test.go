package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStoreMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)
	m.IncCartMutation("add")
	m.IncCartMutation("add")
	m.IncCartMutation("")
	m.IncSessionTransition("logout")
	m.IncStorageFailure("cart")
	m.ObserveCatalogFetch(120 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name, label, value string
		want               float64
	}{
		{"storefront_cart_mutations_total", "op", "add", 2},
		{"storefront_cart_mutations_total", "op", "unknown", 1},
		{"storefront_session_transitions_total", "transition", "logout", 1},
		{"storefront_storage_failures_total", "store", "cart", 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s{%s=%s} expected %v got %v", c.name, c.label, c.value, c.want, got)
		}
	}

	mf := findMetricFamily(mfs, "storefront_catalog_fetch_seconds")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("expected catalog histogram")
	}
	if sum := mf.GetMetric()[0].GetHistogram().GetSampleSum(); sum <= 0 {
		t.Fatalf("expected histogram sum > 0, got %f", sum)
	}
}

func TestNilStoreMetricsIsSafe(t *testing.T) {
	var m *StoreMetrics
	m.IncCartMutation("add")
	m.IncSessionTransition("login")
	m.IncStorageFailure("cart")
	m.ObserveCatalogFetch(time.Second)

	NewStoreMetrics(nil).IncCartMutation("add")
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
