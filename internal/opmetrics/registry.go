// Package opmetrics exposes the gateway's own operational metrics — push
// and scrape counts, forward outcomes, family/ring sizes — on a side
// endpoint separate from the aggregated metrics this gateway stores, so
// that operational counters never get folded into, or mistaken for,
// pushed data (spec.md SPEC_FULL §4.L).
package opmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Registry bundles the gateway's self-observability metrics behind a
// dedicated prometheus.Registry, registered with the constructors below
// rather than the global default registry so it can be scraped on its
// own endpoint (spec.md §4.O, /internal/metrics).
type Registry struct {
	reg *prometheus.Registry

	PushesTotal      *prometheus.CounterVec
	PushErrorsTotal  *prometheus.CounterVec
	ScrapesTotal     prometheus.Counter
	ForwardsTotal    *prometheus.CounterVec
	FamilyCount      prometheus.Gauge
	RingPeerCount    prometheus.Gauge
	SweepDuration    prometheus.Histogram
	IngestBodyBytes  prometheus.Histogram

	logger *logrus.Entry
}

// NewRegistry builds a Registry with every metric registered and ready
// to observe.
func NewRegistry(logger *logrus.Entry) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		PushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gravel",
			Name:      "pushes_total",
			Help:      "Pushes accepted, by outcome.",
		}, []string{"outcome"}),
		PushErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gravel",
			Name:      "push_errors_total",
			Help:      "Pushes rejected, by reason.",
		}, []string{"reason"}),
		ScrapesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gravel",
			Name:      "scrapes_total",
			Help:      "Scrapes served from the aggregated metrics endpoint.",
		}),
		ForwardsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gravel",
			Name:      "forwards_total",
			Help:      "Pushes relayed to a peer, by outcome.",
		}, []string{"outcome"}),
		FamilyCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gravel",
			Name:      "families",
			Help:      "Distinct metric families currently held.",
		}),
		RingPeerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gravel",
			Name:      "cluster_peers",
			Help:      "Peers (including self) on the consistent-hash ring.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gravel",
			Name:      "sweep_duration_seconds",
			Help:      "Time taken by each periodic sweep pass.",
		}),
		IngestBodyBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gravel",
			Name:      "ingest_body_bytes",
			Help:      "Size of accepted push bodies.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		logger: logger,
	}

	reg.MustRegister(
		r.PushesTotal,
		r.PushErrorsTotal,
		r.ScrapesTotal,
		r.ForwardsTotal,
		r.FamilyCount,
		r.RingPeerCount,
		r.SweepDuration,
		r.IngestBodyBytes,
	)

	r.logger.Debug("operational metrics registry initialized")
	return r
}

// Gatherer exposes the underlying prometheus.Registry for promhttp.Handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
