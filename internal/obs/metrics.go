package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_refresh_total",
		Help: "Refresh token exchanges by trigger and result.",
	}, []string{"trigger", "result"})
	SessionRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "session_refresh_duration_seconds",
		Help:    "Time spent in a refresh token exchange.",
		Buckets: prometheus.DefBuckets,
	})
	SessionWaiters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_refresh_waiters",
		Help: "Requests parked behind an in-flight refresh.",
	})
	SessionRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_retries_total",
		Help: "Requests re-issued after a 401, by outcome.",
	}, []string{"result"})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "query_cache_requests_total",
		Help: "Query cache lookups by result (hit, miss, shared).",
	}, []string{"result"})

	MockAPIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mockapi_requests_total",
		Help: "Requests served by the mock backend.",
	}, []string{"route", "code"})
)
