package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/gitmorph/pkg/observability"
)

const namespace = "gitmorph"

// Metrics exports observability events as Prometheus metrics. It implements
// every hook interface of the observability package.
type Metrics struct {
	registry *prometheus.Registry

	parseTotal      *prometheus.CounterVec
	parseDuration   prometheus.Histogram
	parsedCommits   prometheus.Histogram
	layoutDuration  prometheus.Histogram
	layoutWarnings  prometheus.Counter
	planElements    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	transitionTime  prometheus.Histogram
	cacheOps        *prometheus.CounterVec
	cacheBytes      prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	inFlightHTTP    prometheus.Gauge
	websocketClient prometheus.Gauge
}

// NewMetrics registers the gitmorph collectors, plus Go runtime and process
// collectors, on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		parseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "parse_total",
			Help: "Commit logs parsed, by result.",
		}, []string{"result"}),
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "parse_duration_seconds",
			Help:    "Time spent parsing commit logs.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		parsedCommits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "parsed_commits",
			Help:    "Commits per parsed log.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		layoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "layout_duration_seconds",
			Help:    "Time spent laying out snapshots.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		layoutWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "layout_warnings_total",
			Help: "Build and layout warnings.",
		}),
		planElements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "plan_nodes_total",
			Help: "Planned node transitions, by kind.",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "transitions_total",
			Help: "Session transitions, by event.",
		}, []string{"event"}),
		transitionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "transition_duration_seconds",
			Help:    "Wall time of completed transitions.",
			Buckets: prometheus.LinearBuckets(0.2, 0.2, 10),
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_operations_total",
			Help: "Cache lookups and writes, by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_written_bytes_total",
			Help: "Bytes written to the cache.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlightHTTP: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_requests_in_flight",
			Help: "HTTP requests being served.",
		}),
		websocketClient: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "websocket_clients",
			Help: "Connected websocket clients.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.parseTotal, m.parseDuration, m.parsedCommits,
		m.layoutDuration, m.layoutWarnings, m.planElements,
		m.transitions, m.transitionTime,
		m.cacheOps, m.cacheBytes,
		m.httpRequests, m.httpDuration, m.inFlightHTTP, m.websocketClient,
	)
	return m
}

// Install registers m as the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetSessionHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) setClients(n int) { m.websocketClient.Set(float64(n)) }

// =============================================================================
// Pipeline hooks
// =============================================================================

func (m *Metrics) OnParseStart(context.Context, int) {}

func (m *Metrics) OnParseComplete(_ context.Context, commits int, d time.Duration, err error) {
	if err != nil {
		m.parseTotal.WithLabelValues("error").Inc()
		return
	}
	m.parseTotal.WithLabelValues("ok").Inc()
	m.parseDuration.Observe(d.Seconds())
	m.parsedCommits.Observe(float64(commits))
}

func (m *Metrics) OnLayoutStart(context.Context, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, _ int, warnings int, d time.Duration) {
	m.layoutDuration.Observe(d.Seconds())
	m.layoutWarnings.Add(float64(warnings))
}

func (m *Metrics) OnPlanComplete(_ context.Context, entering, persisting, exiting int, _ time.Duration) {
	m.planElements.WithLabelValues("entering").Add(float64(entering))
	m.planElements.WithLabelValues("persisting").Add(float64(persisting))
	m.planElements.WithLabelValues("exiting").Add(float64(exiting))
}

// =============================================================================
// Session hooks
// =============================================================================

func (m *Metrics) OnTransitionStart(string, int) {
	m.transitions.WithLabelValues("start").Inc()
}

func (m *Metrics) OnTransitionFinish(_ string, d time.Duration) {
	m.transitions.WithLabelValues("finish").Inc()
	m.transitionTime.Observe(d.Seconds())
}

func (m *Metrics) OnTransitionCancel(string) {
	m.transitions.WithLabelValues("cancel").Inc()
}

func (m *Metrics) OnTransitionReject(string) {
	m.transitions.WithLabelValues("reject").Inc()
}

// =============================================================================
// Cache hooks
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

// =============================================================================
// HTTP hooks
// =============================================================================

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.inFlightHTTP.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.inFlightHTTP.Dec()
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.SessionHooks  = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
