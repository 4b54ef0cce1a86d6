// Package metrics exposes Prometheus counters and histograms for the HTTP layer
// and for operation launches and polls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediagen/internal/domain"
	"mediagen/internal/lro"
)

// Collector owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	launchesTotal  *prometheus.CounterVec
	launchDuration *prometheus.HistogramVec

	pollsTotal   *prometheus.CounterVec
	pollDuration *prometheus.HistogramVec
}

var vendorBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		launchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_launched_total",
			Help:      "Generation operations submitted to the vendor, by media kind and result",
		}, []string{"kind", "result"}),
		launchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_launch_duration_seconds",
			Help:      "Vendor submit latency in seconds",
			Buckets:   vendorBuckets,
		}, []string{"kind"}),
		pollsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_polls_total",
			Help:      "Status queries answered, by reported state and result",
		}, []string{"state", "result"}),
		pollDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_poll_duration_seconds",
			Help:      "Vendor status fetch latency in seconds",
			Buckets:   vendorBuckets,
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveLaunch(kind domain.MediaKind, code domain.Code, elapsed time.Duration) {
	c.launchesTotal.WithLabelValues(string(kind), result(code)).Inc()
	c.launchDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

func (c *Collector) ObservePoll(state domain.OperationState, code domain.Code, elapsed time.Duration) {
	label := string(state)
	if label == "" {
		label = "UNKNOWN"
	}
	c.pollsTotal.WithLabelValues(label, result(code)).Inc()
	c.pollDuration.WithLabelValues(result(code)).Observe(elapsed.Seconds())
}

func result(code domain.Code) string {
	if code == "" {
		return "ok"
	}
	return string(code)
}

var _ lro.Observer = (*Collector)(nil)
