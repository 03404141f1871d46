package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	DispatchTotal      *prometheus.CounterVec
	ResponseCacheTotal *prometheus.CounterVec
	TTSRequestsTotal   *prometheus.CounterVec
	SynthesisSeconds   prometheus.Histogram
	DeferredTasksTotal *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPSeconds        *prometheus.HistogramVec
	DeviceSessions     prometheus.Gauge
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		DispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sleepvoice_dispatch_total",
			Help: "Voice commands dispatched, by handler, command and outcome",
		}, []string{"handler", "command", "outcome"}),
		ResponseCacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sleepvoice_response_cache_total",
			Help: "Response cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		TTSRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sleepvoice_tts_requests_total",
			Help: "Synthesis backend calls by backend and outcome",
		}, []string{"backend", "outcome"}),
		SynthesisSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sleepvoice_synthesis_seconds",
			Help:    "End-to-end response synthesis latency",
			Buckets: prometheus.DefBuckets,
		}),
		DeferredTasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sleepvoice_deferred_tasks_total",
			Help: "Deferred device tasks by outcome",
		}, []string{"outcome"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sleepvoice_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sleepvoice_http_request_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		DeviceSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sleepvoice_device_sessions",
			Help: "Open device WebSocket sessions",
		}),
	}
}

func (m *Metrics) ObserveDispatch(handler, command, outcome string) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(handler, command, outcome).Inc()
}

// ObserveCache records a lookup result: "hit", "miss" or "error".
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.ResponseCacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTTS(backend, outcome string) {
	if m == nil {
		return
	}
	m.TTSRequestsTotal.WithLabelValues(backend, outcome).Inc()
}

func (m *Metrics) ObserveSynthesis(d time.Duration) {
	if m == nil {
		return
	}
	m.SynthesisSeconds.Observe(d.Seconds())
}

func (m *Metrics) ObserveTask(outcome string) {
	if m == nil {
		return
	}
	m.DeferredTasksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPSeconds.WithLabelValues(route).Observe(d.Seconds())
}

// SetSessions records the current number of device sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.DeviceSessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
