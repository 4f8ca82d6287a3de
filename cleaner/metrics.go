package cleaner

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ipshipyard/phishing-detect/detector"
)

const subsystem = "cleaner"

var (
	redundanciesTotal *prometheus.CounterVec
	metricsOnce       sync.Once
)

// initMetrics registers cleaner metrics once per process.
func initMetrics() {
	metricsOnce.Do(func() {
		var registry prometheus.Registerer = prometheus.DefaultRegisterer

		if testing.Testing() {
			// Use isolated registry in tests to avoid metric collisions
			registry = prometheus.NewRegistry()
		}

		redundanciesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: detector.Namespace,
			Subsystem: subsystem,
			Name:      "redundancies_total",
			Help:      "Total number of list entries dropped or rewritten by the cleaner.",
		}, []string{"list", "kind"})

		registry.MustRegister(redundanciesTotal)
	})
}

func incRemoved(list List, kind Kind) {
	if redundanciesTotal != nil {
		redundanciesTotal.WithLabelValues(string(list), kind.String()).Inc()
	}
}
