// Package metrics holds the prometheus instrumentation for the API
// client and the stores. Collectors register on the default registry so
// embedders expose them with the standard promhttp handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Prometheus metrics
	RequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskcamp_client_requests_total",
		Help: "The total number of outbound API requests",
	}, []string{"method", "status"})
	TokenRefreshCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskcamp_client_token_refresh_total",
		Help: "The total number of access token refresh attempts",
	}, []string{"result"})
	CacheHitsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskcamp_client_cache_hits_total",
		Help: "The total number of store fetches served from cache",
	}, []string{"store"})
	CacheMissesCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskcamp_client_cache_misses_total",
		Help: "The total number of store fetches that hit the network",
	}, []string{"store"})
)
