// Package prometheus records resolver, hider and export metrics.
package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/fwojciec/adsift"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace prefixes every metric name.
const MetricsNamespace = "adsift"

// Resolution results.
const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultError    = "error"
	ResultTimeout  = "timeout"
	ResultRejected = "rejected"
)

// Metrics holds the collectors for one registry.
type Metrics struct {
	registry *prometheus.Registry

	ResolutionsTotal  *prometheus.CounterVec
	ResolveDuration   prometheus.Histogram
	HidePassesTotal   prometheus.Counter
	HidePassDuration  prometheus.Histogram
	ExportsTotal      *prometheus.CounterVec
	ExportRecords     prometheus.Histogram
	ExportNewAdsTotal prometheus.Counter
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: "resolver",
				Name:      "resolutions_total",
				Help:      "Total number of link resolutions by result",
			},
			[]string{"result"},
		),
		ResolveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Subsystem: "resolver",
				Name:      "resolve_duration_seconds",
				Help:      "Duration of link resolutions in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		HidePassesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: "hider",
				Name:      "passes_total",
				Help:      "Total number of hiding passes",
			},
		),
		HidePassDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Subsystem: "hider",
				Name:      "pass_duration_seconds",
				Help:      "Duration of hiding passes in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
		ExportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: "export",
				Name:      "runs_total",
				Help:      "Total number of export runs by status",
			},
			[]string{"status"},
		),
		ExportRecords: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Subsystem: "export",
				Name:      "records",
				Help:      "Number of records per export",
				Buckets:   prometheus.LinearBuckets(0, 5, 10),
			},
		),
		ExportNewAdsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: "export",
				Name:      "new_ads_total",
				Help:      "Total number of ads seen for the first time in this session",
			},
		),
	}
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Ensure MetricsResolver implements adsift.Resolver.
var _ adsift.Resolver = (*MetricsResolver)(nil)

// MetricsResolver counts resolutions by result and times them.
type MetricsResolver struct {
	next    adsift.Resolver
	metrics *Metrics
}

// NewMetricsResolver wraps next.
func NewMetricsResolver(next adsift.Resolver, m *Metrics) *MetricsResolver {
	return &MetricsResolver{next: next, metrics: m}
}

// Resolve delegates to the wrapped resolver.
func (r *MetricsResolver) Resolve(ctx context.Context, req adsift.ResolveRequest) (resp *adsift.ResolveResponse, err error) {
	defer func(begin time.Time) {
		r.metrics.ResolveDuration.Observe(time.Since(begin).Seconds())
		r.metrics.ResolutionsTotal.WithLabelValues(resolveResult(ctx, resp, err)).Inc()
	}(time.Now())
	return r.next.Resolve(ctx, req)
}

func resolveResult(ctx context.Context, resp *adsift.ResolveResponse, err error) string {
	switch {
	case err != nil && adsift.ErrorCode(err) == adsift.EINVALID:
		return ResultRejected
	case err != nil && ctx.Err() != nil:
		return ResultTimeout
	case err != nil:
		return ResultError
	case resp == nil || !resp.OK:
		return ResultFailed
	}
	return ResultOK
}

// Ensure MetricsHider implements adsift.Hider.
var _ adsift.Hider = (*MetricsHider)(nil)

// MetricsHider counts and times hiding passes.
type MetricsHider struct {
	next    adsift.Hider
	metrics *Metrics
}

// NewMetricsHider wraps next.
func NewMetricsHider(next adsift.Hider, m *Metrics) *MetricsHider {
	return &MetricsHider{next: next, metrics: m}
}

// Apply delegates to the wrapped hider.
func (h *MetricsHider) Apply(root adsift.Node) {
	defer func(begin time.Time) {
		h.metrics.HidePassesTotal.Inc()
		h.metrics.HidePassDuration.Observe(time.Since(begin).Seconds())
	}(time.Now())
	h.next.Apply(root)
}

// Ensure MetricsExporter implements adsift.Exporter.
var _ adsift.Exporter = (*MetricsExporter)(nil)

// MetricsExporter counts export runs and their sizes.
type MetricsExporter struct {
	next    adsift.Exporter
	metrics *Metrics
}

// NewMetricsExporter wraps next.
func NewMetricsExporter(next adsift.Exporter, m *Metrics) *MetricsExporter {
	return &MetricsExporter{next: next, metrics: m}
}

// Export delegates to the wrapped exporter.
func (e *MetricsExporter) Export(ctx context.Context, doc adsift.Document) (*adsift.Export, error) {
	exp, err := e.next.Export(ctx, doc)
	if err != nil {
		e.metrics.ExportsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	e.metrics.ExportsTotal.WithLabelValues("ok").Inc()
	e.metrics.ExportRecords.Observe(float64(len(exp.Records)))
	return exp, nil
}
