package main

import (
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ipshipyard/phishing-detect/detector"
)

const (
	name       = "phishing-detect"
	importPath = "github.com/ipshipyard/phishing-detect"
)

var version = buildVersion()

// buildVersion returns the module version recorded by the Go toolchain,
// or "unknown" for development builds.
func buildVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if bi.Main.Path == importPath && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			return s.Value[:12]
		}
	}
	return "unknown"
}

func registerVersionMetric() {
	m := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   detector.Namespace,
		Name:        "info",
		Help:        "Information about the phishing-detect build.",
		ConstLabels: prometheus.Labels{"version": version},
	})
	prometheus.MustRegister(m)
	m.Set(1)
}
