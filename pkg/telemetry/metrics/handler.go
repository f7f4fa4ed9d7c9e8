package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an HTTP handler exposing the guard metrics in the
// standard Prometheus exposition format. Embedding applications mount it
// wherever their scrape path lives (typically "/metrics").
//
// Example:
//
//	m := metrics.NewMetrics(nil)
//	http.Handle("/metrics", m.Handler())
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}
