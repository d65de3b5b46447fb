package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Search requests by outcome",
		},
		[]string{"outcome"},
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Time spent serving a search, recommendations included",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	trackingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_tracking_failures_total",
			Help: "Signal tracking calls that failed",
		},
		[]string{"kind"},
	)

	trackingDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_tracking_dropped_total",
			Help: "Signal tracking tasks dropped because the pool was saturated",
		},
		[]string{"kind"},
	)
)
