package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pairchat_ws_connections",
		Help: "Current number of active websocket connections",
	})
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pairchat_queue_depth",
		Help: "Current number of users waiting in the match queue",
	})
	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_matches_total",
		Help: "Total number of successful pairings",
	})
	MessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_messages_total",
		Help: "Total number of chat messages relayed",
	})
	UnlocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_media_unlocks_total",
		Help: "Total number of paid media unlocks",
	})
	GiftsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_gifts_total",
		Help: "Total number of token gifts",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		WsConnections, QueueDepth, MatchesTotal, MessagesTotal,
		UnlocksTotal, GiftsTotal, HttpRequestsTotal, HttpRequestDuration,
	)
}

// GinMiddleware records basic request metrics for Prometheus to scrape.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
