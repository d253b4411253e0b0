package dispatch

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsHandler serves the ambient Prometheus surface on its own path,
// separate from the JSON API (spec's Non-goals exclude a metrics pipeline
// as a client-facing feature, not ambient operational observability).
func (s *Server) metricsHandler() http.Handler {
	return promhttp.Handler()
}
