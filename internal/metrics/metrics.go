// Package metrics holds the prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerwall_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "offerwall_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PostbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerwall_postbacks_total",
			Help: "Postback deliveries by outcome (ok, duplicate, forbidden, error or a rejection reason)",
		},
		[]string{"outcome"},
	)

	PointsCreditedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerwall_points_credited_total",
			Help: "Points credited to accounts by transaction kind",
		},
		[]string{"kind"},
	)

	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerwall_withdrawals_total",
			Help: "Withdrawal requests by status transition",
		},
		[]string{"status"},
	)
)
