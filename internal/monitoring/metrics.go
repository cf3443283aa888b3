// Package monitoring exposes Prometheus metrics for the catalog pipeline
// and the dual-store write path.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogBuilds counts catalog builds by result ("ok" or "failed").
	CatalogBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_builds_total",
			Help: "Total number of catalog builds by result",
		},
		[]string{"result"},
	)

	// BuildRecordsSkipped counts malformed dataset records skipped during builds.
	BuildRecordsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_build_records_skipped_total",
			Help: "Total number of malformed bulk records skipped during catalog builds",
		},
	)

	// PartialWrites counts mutations where the durable write succeeded but
	// the cache projection write failed, by operation. Non-zero growth means
	// the projection has drifted and needs reconciliation.
	PartialWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_partial_writes_total",
			Help: "Total number of collection writes that left the cache projection stale",
		},
		[]string{"op"},
	)

	// Reconciliations counts projection rebuilds from the durable store.
	Reconciliations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collection_reconciliations_total",
			Help: "Total number of collection projection reconciliations",
		},
	)
)
