// Package metrics bridges the observability hooks to Prometheus and
// serves the stats endpoint. Registering the collectors is optional; the
// engine runs identically with the default no-op hooks.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/BitEU/linkchart/pkg/observability"
	"github.com/BitEU/linkchart/pkg/sched"
)

// Collectors holds the Prometheus instruments and implements every hook
// interface in pkg/observability.
type Collectors struct {
	tickDuration    prometheus.Histogram
	tickFailures    prometheus.Counter
	nodeCount       prometheus.Gauge
	downgrades      *prometheus.CounterVec
	frameDuration   prometheus.Histogram
	framesCoalesced prometheus.Counter
	exportDuration  *prometheus.HistogramVec
	exportFailures  *prometheus.CounterVec
	cacheOps        *prometheus.CounterVec

	agg *sched.Metrics
}

// NewCollectors builds and registers the instruments on the given
// registerer. The sched.Metrics aggregator is fed alongside Prometheus so
// the stats endpoint and the scrape endpoint agree.
func NewCollectors(reg prometheus.Registerer, agg *sched.Metrics) *Collectors {
	c := &Collectors{
		agg: agg,
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "linkchart",
			Subsystem: "simulation",
			Name:      "tick_duration_seconds",
			Help:      "Duration of physics ticks.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		tickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linkchart",
			Subsystem: "simulation",
			Name:      "tick_failures_total",
			Help:      "Ticks that failed and were discarded.",
		}),
		nodeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "linkchart",
			Subsystem: "simulation",
			Name:      "nodes",
			Help:      "Nodes in the running simulation.",
		}),
		downgrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linkchart",
			Subsystem: "compute",
			Name:      "backend_downgrades_total",
			Help:      "Compute backend failovers by transition.",
		}, []string{"from", "to"}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "linkchart",
			Subsystem: "render",
			Name:      "frame_duration_seconds",
			Help:      "Duration of rendered frames.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		framesCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linkchart",
			Subsystem: "render",
			Name:      "frames_coalesced_total",
			Help:      "Redraw requests absorbed into a pending frame.",
		}),
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "linkchart",
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "Duration of exports by format.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"format"}),
		exportFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linkchart",
			Subsystem: "export",
			Name:      "failures_total",
			Help:      "Failed exports by format.",
		}, []string{"format"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linkchart",
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache operations by key type and outcome.",
		}, []string{"key_type", "outcome"}),
	}

	reg.MustRegister(
		c.tickDuration, c.tickFailures, c.nodeCount, c.downgrades,
		c.frameDuration, c.framesCoalesced,
		c.exportDuration, c.exportFailures, c.cacheOps,
	)
	return c
}

// Install registers the collectors as the process-wide observability hooks.
func (c *Collectors) Install() {
	observability.SetSimulationHooks(c)
	observability.SetRenderHooks(c)
	observability.SetExportHooks(c)
	observability.SetCacheHooks(c)
}

// OnTickStart implements observability.SimulationHooks.
func (c *Collectors) OnTickStart(ctx context.Context, nodeCount int) {
	c.nodeCount.Set(float64(nodeCount))
}

// OnTickComplete implements observability.SimulationHooks.
func (c *Collectors) OnTickComplete(ctx context.Context, nodeCount int, d time.Duration, err error) {
	c.tickDuration.Observe(d.Seconds())
	if err != nil {
		c.tickFailures.Inc()
	}
	if c.agg != nil {
		c.agg.RecordTick(d)
	}
}

// OnBackendDowngrade implements observability.SimulationHooks.
func (c *Collectors) OnBackendDowngrade(ctx context.Context, from, to string, cause error) {
	c.downgrades.WithLabelValues(from, to).Inc()
	if c.agg != nil {
		c.agg.RecordDowngrade()
	}
}

// OnFrameComplete implements observability.RenderHooks.
func (c *Collectors) OnFrameComplete(ctx context.Context, d time.Duration) {
	c.frameDuration.Observe(d.Seconds())
	if c.agg != nil {
		c.agg.RecordFrame(time.Now())
	}
}

// OnFrameCoalesced implements observability.RenderHooks.
func (c *Collectors) OnFrameCoalesced(ctx context.Context, trigger string) {
	c.framesCoalesced.Inc()
}

// OnExportStart implements observability.ExportHooks.
func (c *Collectors) OnExportStart(ctx context.Context, format string, dpi int) {}

// OnExportComplete implements observability.ExportHooks.
func (c *Collectors) OnExportComplete(ctx context.Context, format string, size int, d time.Duration, err error) {
	c.exportDuration.WithLabelValues(format).Observe(d.Seconds())
	if err != nil {
		c.exportFailures.WithLabelValues(format).Inc()
	}
}

// OnCacheHit implements observability.CacheHooks.
func (c *Collectors) OnCacheHit(ctx context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (c *Collectors) OnCacheMiss(ctx context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (c *Collectors) OnCacheSet(ctx context.Context, keyType string, size int) {
	c.cacheOps.WithLabelValues(keyType, "set").Inc()
}

// Interface checks.
var (
	_ observability.SimulationHooks = (*Collectors)(nil)
	_ observability.RenderHooks     = (*Collectors)(nil)
	_ observability.ExportHooks     = (*Collectors)(nil)
	_ observability.CacheHooks      = (*Collectors)(nil)
)
