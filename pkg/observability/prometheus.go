package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface on a private registry.
// mvnboot is a short-lived process, so metrics are exported with
// [Prometheus.WriteTextfile] for the node exporter textfile collector
// rather than served.
type Prometheus struct {
	registry *prometheus.Registry

	manifests     *prometheus.HistogramVec
	conflicts     prometheus.Counter
	resolveRuns   *prometheus.CounterVec
	resolved      prometheus.Gauge
	downloads     *prometheus.CounterVec
	downloadBytes prometheus.Counter
	cacheOps      *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewPrometheus creates and registers all collectors.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		manifests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mvnboot_manifest_duration_seconds",
			Help:    "Time to fetch and parse one POM manifest.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mvnboot_version_conflicts_total",
			Help: "Claims rejected because another version of the artifact was already registered.",
		}),
		resolveRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mvnboot_resolve_runs_total",
			Help: "Resolution runs by outcome.",
		}, []string{"outcome"}),
		resolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mvnboot_resolved_dependencies",
			Help: "Dependencies in the most recent resolution result.",
		}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mvnboot_downloads_total",
			Help: "Archive downloads by outcome.",
		}, []string{"outcome"}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mvnboot_download_bytes_total",
			Help: "Bytes written by the download pool.",
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mvnboot_cache_operations_total",
			Help: "Cache operations by type and result.",
		}, []string{"key_type", "op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mvnboot_http_requests_total",
			Help: "HTTP requests by host and status code.",
		}, []string{"host", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mvnboot_http_request_duration_seconds",
			Help:    "HTTP request latency by host.",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
	}
	p.registry.MustRegister(
		p.manifests, p.conflicts, p.resolveRuns, p.resolved,
		p.downloads, p.downloadBytes, p.cacheOps,
		p.httpRequests, p.httpDuration,
	)
	return p
}

// Registry exposes the underlying registry, mainly for tests.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// WriteTextfile writes all metrics in the text exposition format.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnResolveStart(context.Context, string) {}

func (p *Prometheus) OnManifest(_ context.Context, _ string, d time.Duration, err error) {
	p.manifests.WithLabelValues(outcome(err)).Observe(d.Seconds())
}

func (p *Prometheus) OnConflict(context.Context, string, string, string) { p.conflicts.Inc() }

func (p *Prometheus) OnResolveComplete(_ context.Context, _ string, n int, _ time.Duration, err error) {
	p.resolveRuns.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		p.resolved.Set(float64(n))
	}
}

func (p *Prometheus) OnDownload(_ context.Context, _ string, n int64, _ time.Duration, err error) {
	p.downloads.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		p.downloadBytes.Add(float64(n))
	}
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, _ int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	p.httpRequests.WithLabelValues(host, strconv.Itoa(code)).Inc()
	p.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, host, _ string, _ error) {
	p.httpRequests.WithLabelValues(host, "error").Inc()
}

var (
	_ ResolveHooks  = (*Prometheus)(nil)
	_ DownloadHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
