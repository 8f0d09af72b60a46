package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "serenify_journal"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// PipelineMetrics covers the entry-write pipeline.
type PipelineMetrics struct {
	EntriesCreated  *prometheus.CounterVec // by sentiment label, "unset" when analysis is off
	EntriesDeleted  prometheus.Counter
	ClassifierFault prometheus.Counter
	OrphanedEntries prometheus.Counter
}

// CacheMetrics covers the cache gateway.
type CacheMetrics struct {
	Hits    prometheus.Counter
	Misses  prometheus.Counter
	Corrupt prometheus.Counter
}

// PublisherMetrics covers sentiment event emission.
type PublisherMetrics struct {
	Attempts *prometheus.CounterVec // by transport
	Failures *prometheus.CounterVec // by transport
}

// Metrics bundles every collector the service exports.
type Metrics struct {
	Pipeline  *PipelineMetrics
	Cache     *CacheMetrics
	Publisher *PublisherMetrics
}

// New creates and registers all collectors on reg. Pass prometheus.NewRegistry()
// in tests to avoid duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	p := &PipelineMetrics{
		EntriesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entries",
			Name:      "created_total",
			Help:      "Journal entries created, by sentiment.",
		}, []string{"sentiment"}),
		EntriesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entries",
			Name:      "deleted_total",
			Help:      "Journal entries deleted.",
		}),
		ClassifierFault: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "faults_total",
			Help:      "Classifier failures degraded to NEUTRAL.",
		}),
		OrphanedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entries",
			Name:      "orphaned_total",
			Help:      "Entries persisted whose owner update then failed.",
		}),
	}
	c := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache gateway hits.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache gateway misses.",
		}),
		Corrupt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "corrupt_total",
			Help:      "Cached payloads that failed to decode.",
		}),
	}
	pub := &PublisherMetrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "publish_attempts_total",
			Help:      "Sentiment observation publish attempts, by transport.",
		}, []string{"transport"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Sentiment observation publish failures, by transport.",
		}, []string{"transport"}),
	}

	reg.MustRegister(
		p.EntriesCreated, p.EntriesDeleted, p.ClassifierFault, p.OrphanedEntries,
		c.Hits, c.Misses, c.Corrupt,
		pub.Attempts, pub.Failures,
	)
	return &Metrics{Pipeline: p, Cache: c, Publisher: pub}
}
