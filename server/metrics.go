package server

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ipshipyard/phishing-detect/detector"
)

var (
	requestsTotal *prometheus.CounterVec
	metricsOnce   sync.Once
)

func initMetrics() {
	metricsOnce.Do(func() {
		var registry prometheus.Registerer = prometheus.DefaultRegisterer

		if testing.Testing() {
			// Use isolated registry in tests to avoid metric collisions
			registry = prometheus.NewRegistry()
		}

		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: detector.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP API requests by status code.",
		}, []string{"code"})

		registry.MustRegister(requestsTotal)
	})
}

func incRequest(code string) {
	if requestsTotal != nil {
		requestsTotal.WithLabelValues(code).Inc()
	}
}
