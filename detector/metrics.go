package detector

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by this module.
const Namespace = "phishing_detect"

var (
	checksTotal  *prometheus.CounterVec
	entriesGauge *prometheus.GaugeVec
	metricsOnce  sync.Once
)

// initMetrics registers detector metrics once per process.
func initMetrics() {
	metricsOnce.Do(func() {
		var registry prometheus.Registerer = prometheus.DefaultRegisterer

		if testing.Testing() {
			// Use isolated registry in tests to avoid metric collisions
			registry = prometheus.NewRegistry()
		}

		checksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "checks_total",
			Help:      "Total number of hostname checks by outcome type.",
		}, []string{"type", "name"})

		entriesGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "list_entries",
			Help:      "Number of entries in each list of a compiled configuration.",
		}, []string{"name", "list"})

		registry.MustRegister(checksTotal, entriesGauge)
	})
}

// incCheck counts one check outcome.
func incCheck(t MatchType, name string) {
	if checksTotal != nil {
		checksTotal.WithLabelValues(string(t), name).Inc()
	}
}

// updateEntries records the size of a compiled list.
func updateEntries(name, list string, count int) {
	if entriesGauge != nil {
		entriesGauge.WithLabelValues(name, list).Set(float64(count))
	}
}
