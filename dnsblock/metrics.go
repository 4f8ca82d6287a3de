package dnsblock

import (
	"sync"
	"testing"

	"github.com/coredns/coredns/plugin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	blockedCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: plugin.Namespace,
		Subsystem: "phishing",
		Name:      "blocked_total",
		Help:      "Total number of DNS queries answered as blocked, by match type and configuration name.",
	}, []string{"type", "name"})

	metricsOnce sync.Once
)

// initMetrics registers plugin metrics with the appropriate registry.
func initMetrics() {
	metricsOnce.Do(func() {
		var registry prometheus.Registerer = prometheus.DefaultRegisterer

		if testing.Testing() {
			// Use isolated registry in tests to avoid metric collisions
			registry = prometheus.NewRegistry()
		}

		registry.MustRegister(blockedCount)
	})
}
