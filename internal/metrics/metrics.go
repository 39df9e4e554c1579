// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes
const (
	OutcomeRedirected = "redirected"
	OutcomeNotFound   = "not_found"
	OutcomeExpired    = "expired"
	OutcomeError      = "error"
)

var (
	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortly_links_created_total",
		Help: "Number of links created",
	})

	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortly_resolutions_total",
		Help: "Number of shortcode resolutions by outcome",
	}, []string{"outcome"}) // redirected, not_found, expired, error

	BatchRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortly_batch_rejections_total",
		Help: "Number of rejected shorten batches by error code",
	}, []string{"code"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shortly_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	}, []string{"method", "route", "status"})
)
