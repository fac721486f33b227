package biz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MetricChatRequests counts chat requests by classified intent
	// and outcome.
	MetricChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atlas",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total number of chat requests",
		},
		[]string{"intent", "status"},
	)

	// MetricChatDuration measures end-to-end processing time.
	MetricChatDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "atlas",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat request processing duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"intent"},
	)

	// MetricProviderAttempts counts generation attempts per provider.
	MetricProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atlas",
			Subsystem: "provider",
			Name:      "attempts_total",
			Help:      "Language-model provider attempts by result",
		},
		[]string{"provider", "result"},
	)

	// MetricSessionsActive tracks the live session count.
	MetricSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "atlas",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of sessions currently held in memory",
		},
	)

	// MetricSessionsSwept counts sessions evicted by the sweeper.
	MetricSessionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atlas",
			Subsystem: "session",
			Name:      "swept_total",
			Help:      "Total number of sessions evicted by TTL sweep",
		},
	)
)
