// Package metrics exposes Prometheus collectors for the session shell.
package metrics

import (
	"net/http"

	"github.com/adala-wanyande/afyaone/internal/platform/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "afyaone"

// NewRegistry creates a registry with Go runtime and process collectors and an
// afyaone_build_info gauge describing the running build.
func NewRegistry(build version.Info) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Always 1; labels identify the running build.",
		ConstLabels: prometheus.Labels{
			"version":    build.Version,
			"commit":     build.Commit,
			"build_time": build.BuildTime,
			"go_version": build.GoVersion,
		},
	}, func() float64 { return 1 }))
	return reg
}

// Handler serves the registry. Collection errors are reported in the response
// rather than failing the scrape.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:          reg,
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	})
}
