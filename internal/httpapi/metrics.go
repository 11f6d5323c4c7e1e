package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scylladb/vector-store/internal/metrics"
)

// servePrometheusMetrics delegates to promhttp, which already does the
// protobuf-vs-text content negotiation on the request's Accept header that
// get_metrics hand-rolled in the original.
func servePrometheusMetrics(c *gin.Context, m *metrics.Registry) {
	handler := promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{})
	handler.ServeHTTP(c.Writer, c.Request)
}
