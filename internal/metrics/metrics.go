// Package metrics exposes prometheus collectors for the pairing controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wcpair"

// Asset fetch outcomes.
const (
	AssetFetchOK       = "ok"
	AssetFetchError    = "error"
	AssetFetchCanceled = "canceled"
)

// Collector groups the controller metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	commands       *prometheus.CounterVec
	published      prometheus.Counter
	sessionUpdates prometheus.Counter
	providerErrors *prometheus.CounterVec
	assetFetches   *prometheus.CounterVec
	assetDuration  prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is handy in tests.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dispatched_total",
			Help:      "Commands dispatched by the controller loop.",
		}, []string{"action"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "states_published_total",
			Help:      "State snapshots published to observers.",
		}),
		sessionUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_updates_total",
			Help:      "Session snapshots pushed by the session provider.",
		}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Failed session provider calls.",
		}, []string{"op"}),
		assetFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_fetches_total",
			Help:      "Asset fetches by outcome.",
		}, []string{"result"}),
		assetDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asset_fetch_duration_seconds",
			Help:      "Asset fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{
		c.commands, c.published, c.sessionUpdates,
		c.providerErrors, c.assetFetches, c.assetDuration,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CommandDispatched counts a dispatched command.
func (c *Collector) CommandDispatched(action string) {
	if c == nil {
		return
	}
	c.commands.WithLabelValues(action).Inc()
}

// StatePublished counts a published snapshot.
func (c *Collector) StatePublished() {
	if c == nil {
		return
	}
	c.published.Inc()
}

// SessionUpdate counts a pushed session snapshot.
func (c *Collector) SessionUpdate() {
	if c == nil {
		return
	}
	c.sessionUpdates.Inc()
}

// ProviderError counts a failed provider call for op.
func (c *Collector) ProviderError(op string) {
	if c == nil {
		return
	}
	c.providerErrors.WithLabelValues(op).Inc()
}

// AssetFetch records the outcome and latency of an asset fetch.
func (c *Collector) AssetFetch(result string, seconds float64) {
	if c == nil {
		return
	}
	c.assetFetches.WithLabelValues(result).Inc()
	if result != AssetFetchCanceled {
		c.assetDuration.Observe(seconds)
	}
}
