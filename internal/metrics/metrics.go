// Package metrics exposes Prometheus collectors for the replication
// core, using promauto for one-line registration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry groups every collector the replicator reports.
type Registry struct {
	ActiveClients    prometheus.Gauge
	ActiveObjects    prometheus.Gauge
	SnapshotsStored  prometheus.Gauge
	TickDuration     prometheus.Histogram
	DatagramBytes    prometheus.Histogram
	ObjectsPerTick   prometheus.Histogram
	ObjectsDeferred  prometheus.Counter
	SnapshotGCTotal  prometheus.Counter
	FullBaselineSend prometheus.Counter
	DecodeErrors     prometheus.Counter
	DroppedDatagrams prometheus.Counter
}

func NewRegistry() *Registry {
	return &Registry{
		ActiveClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "replicator_active_clients",
			Help: "Number of clients currently in a session.",
		}),
		ActiveObjects: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "replicator_active_objects",
			Help: "Number of objects in the latest server snapshot.",
		}),
		SnapshotsStored: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "replicator_snapshots_stored",
			Help: "Number of snapshots currently retained in the snapshot store.",
		}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "replicator_tick_duration_seconds",
			Help:    "Wall-clock time spent building and sending one server tick.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		DatagramBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "replicator_datagram_bytes",
			Help:    "Size in bytes of per-client snapshot datagrams.",
			Buckets: prometheus.LinearBuckets(0, 100, 15),
		}),
		ObjectsPerTick: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "replicator_objects_per_datagram",
			Help:    "Number of object records written per client datagram.",
			Buckets: prometheus.LinearBuckets(0, 16, 16),
		}),
		ObjectsDeferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "replicator_objects_deferred_total",
			Help: "Objects whose delta was not written this tick because the datagram budget was exhausted.",
		}),
		SnapshotGCTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "replicator_snapshot_gc_total",
			Help: "Number of snapshot-store GC passes run.",
		}),
		FullBaselineSend: promauto.NewCounter(prometheus.CounterOpts{
			Name: "replicator_full_baseline_sends_total",
			Help: "Client datagrams encoded with no baseline, because the client has not acked yet or its last-acked frame had already been GC'd.",
		}),
		DecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "replicator_decode_errors_total",
			Help: "Client-side decode errors (malformed/truncated datagrams), dropped per §7.",
		}),
		DroppedDatagrams: promauto.NewCounter(prometheus.CounterOpts{
			Name: "replicator_dropped_datagrams_total",
			Help: "Snapshot datagrams that failed to send.",
		}),
	}
}

// Handler exposes the registry on an HTTP mux.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}
