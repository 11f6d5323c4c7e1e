// Package metrics holds the Prometheus collectors this service exposes at
// /api/v1/metrics, grounded the same way the teacher reaches for a
// client_golang registry for service-level counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every collector this service registers, so C9 can hand
// a single value to promhttp and every other component can hand it a
// single value to record against.
type Registry struct {
	reg *prometheus.Registry

	AnnLatency      *prometheus.HistogramVec
	ScanDroppedRows *prometheus.CounterVec
	IndexedRows     *prometheus.GaugeVec
}

// NewRegistry builds and registers every collector.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		AnnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vector_store_ann_latency_seconds",
			Help:    "Latency of ANN search requests, observed regardless of outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"keyspace", "index"}),
		ScanDroppedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vector_store_scan_dropped_rows_total",
			Help: "Rows dropped during a base-table scan or CDC tail due to a dimension mismatch or decode error.",
		}, []string{"keyspace", "index"}),
		IndexedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vector_store_indexed_rows",
			Help: "Number of rows currently held by an index's ANN graph.",
		}, []string{"keyspace", "index"}),
	}

	reg.MustRegister(r.AnnLatency, r.ScanDroppedRows, r.IndexedRows)
	return r
}

// Gatherer exposes the underlying *prometheus.Registry to promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
