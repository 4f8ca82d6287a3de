package configfile

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ipshipyard/phishing-detect/detector"
)

const subsystem = "config"

var (
	reloadErrorsTotal *prometheus.CounterVec
	lastReloadGauge   *prometheus.GaugeVec
	metricsOnce       sync.Once
)

// initMetrics initializes and registers watcher metrics once per process.
func initMetrics() {
	metricsOnce.Do(func() {
		var registry prometheus.Registerer = prometheus.DefaultRegisterer

		if testing.Testing() {
			// Use isolated registry in tests to avoid metric collisions
			registry = prometheus.NewRegistry()
		}

		reloadErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: detector.Namespace,
			Subsystem: subsystem,
			Name:      "reload_errors_total",
			Help:      "Total number of configuration reloads rejected as invalid or unreadable.",
		}, []string{"file"})

		lastReloadGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: detector.Namespace,
			Subsystem: subsystem,
			Name:      "last_reload_timestamp",
			Help:      "Unix timestamp of the last successful configuration load.",
		}, []string{"file"})

		registry.MustRegister(reloadErrorsTotal, lastReloadGauge)
	})
}

func incReloadError(file string) {
	if reloadErrorsTotal != nil {
		reloadErrorsTotal.WithLabelValues(file).Inc()
	}
}

func updateLastReload(file string, unixTimestamp int64) {
	if lastReloadGauge != nil {
		lastReloadGauge.WithLabelValues(file).Set(float64(unixTimestamp))
	}
}
