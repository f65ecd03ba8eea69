package hnsw

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics mirrors the teacher's promauto-registered counters/histograms,
// scoped to graph operations instead of HTTP requests. Each Index gets its
// own metrics so multiple indexes in one process don't collide on label
// values; the registerer is left as the default global one, matching the
// teacher's package-level promauto.With(nil) style.
type metrics struct {
	inserts     prometheus.Counter
	deletes     prometheus.Counter
	searchLat   prometheus.Histogram
	insertLat   prometheus.Histogram
	recallGauge prometheus.Gauge
	slotBusy    prometheus.Gauge
}

var metricsIndexSeq atomic.Int64

func newMetrics() *metrics {
	seq := metricsIndexSeq.Add(1)
	labels := prometheus.Labels{"index": strconv.FormatInt(seq, 10)}
	return &metrics{
		inserts: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "annkit_hnsw_inserts_total",
			Help:        "Total number of committed node insertions.",
			ConstLabels: labels,
		}),
		deletes: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "annkit_hnsw_deletes_total",
			Help:        "Total number of node deletions.",
			ConstLabels: labels,
		}),
		searchLat: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "annkit_hnsw_search_seconds",
			Help:        "Search latency in seconds.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		insertLat: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "annkit_hnsw_insert_seconds",
			Help:        "Insert latency in seconds.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		recallGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "annkit_hnsw_recall_ratio",
			Help:        "Most recent test_graph_recall result.",
			ConstLabels: labels,
		}),
		slotBusy: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "annkit_hnsw_read_slots_busy",
			Help:        "Read slots currently occupied.",
			ConstLabels: labels,
		}),
	}
}
