package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records cart/session activity and catalog fetch latency.
type StoreMetrics struct {
	cartMutations      *prometheus.CounterVec
	sessionTransitions *prometheus.CounterVec
	storageFailures    *prometheus.CounterVec
	catalogFetch       prometheus.Histogram
}

// NewStoreMetrics registers the store metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	sessionTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_session_transitions_total",
		Help: "Session transitions by kind.",
	}, []string{"transition"})
	storageFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_storage_failures_total",
		Help: "Durable storage reads or writes that failed or returned corrupt data.",
	}, []string{"store"})
	catalogFetch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_catalog_fetch_seconds",
		Help:    "Duration of catalog page fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(cartMutations, sessionTransitions, storageFailures, catalogFetch)
	return &StoreMetrics{
		cartMutations:      cartMutations,
		sessionTransitions: sessionTransitions,
		storageFailures:    storageFailures,
		catalogFetch:       catalogFetch,
	}
}

func (m *StoreMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *StoreMetrics) IncSessionTransition(transition string) {
	if m == nil || m.sessionTransitions == nil {
		return
	}
	m.sessionTransitions.WithLabelValues(normalizeLabel(transition)).Inc()
}

func (m *StoreMetrics) IncStorageFailure(store string) {
	if m == nil || m.storageFailures == nil {
		return
	}
	m.storageFailures.WithLabelValues(normalizeLabel(store)).Inc()
}

func (m *StoreMetrics) ObserveCatalogFetch(duration time.Duration) {
	if m == nil || m.catalogFetch == nil {
		return
	}
	m.catalogFetch.Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
