// Package metrics registers the prometheus instruments exposed on
// /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPLatencyMS *prometheus.HistogramVec
	Placements    *prometheus.CounterVec
	Callbacks     *prometheus.CounterVec
}

func New(service string) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "checkout",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: service,
		Name:      "order_placements_total",
		Help:      "Order placement attempts by outcome.",
	}, []string{"result"})
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Subsystem: service,
		Name:      "payment_callbacks_total",
		Help:      "Payment gateway callbacks by kind and outcome.",
	}, []string{"kind", "result"})

	prometheus.MustRegister(requests, latency, placements, callbacks)
	return &Metrics{
		HTTPRequests:  requests,
		HTTPLatencyMS: latency,
		Placements:    placements,
		Callbacks:     callbacks,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
