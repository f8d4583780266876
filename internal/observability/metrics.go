// Package observability provides prometheus metrics for the application.
package observability

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocketConnections is the gauge of active websocket connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snipstream_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snipstream_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// FanoutFailures counts swallowed fan-out and publish failures by stage.
	FanoutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snipstream_fanout_failures_total",
		Help: "Total number of fan-out failures recovered locally",
	}, []string{"stage"})

	// RedisErrors counts Redis command errors by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snipstream_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snipstream_notifications_created_total",
		Help: "Total number of notifications persisted, by type",
	}, []string{"type"})

	// FeedFallbacks counts feed requests served from the public fallback.
	FeedFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipstream_feed_fallbacks_total",
		Help: "Total number of feed requests served via the public fallback",
	})
)

var (
	httpMetricsOnce sync.Once
	httpMetrics     *fiberprometheus.FiberPrometheus
)

// InitHTTPMetrics creates the fiberprometheus middleware for HTTP metrics.
// The underlying collectors register with the default prometheus registry, so
// the instance is created once and shared.
func InitHTTPMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	httpMetricsOnce.Do(func() {
		httpMetrics = fiberprometheus.New(serviceName)
	})
	return httpMetrics
}
