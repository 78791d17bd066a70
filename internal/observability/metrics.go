package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat core.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	chatsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_chats_created_total",
			Help: "Total number of chats created.",
		},
	)
	chatsArchivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_chats_archived_total",
			Help: "Total number of chats archived.",
		},
	)
	messageEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_message_events_total",
			Help: "Total number of message delivery events appended, by kind.",
		},
		[]string{"kind"},
	)
	capabilityChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_capability_checks_total",
			Help: "Total number of capability checks, by subject, action, and decision.",
		},
		[]string{"subject", "action", "decision"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		chatsCreatedTotal,
		chatsArchivedTotal,
		messageEventsTotal,
		capabilityChecksTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncChatCreated() {
	chatsCreatedTotal.Inc()
}

func IncChatArchived() {
	chatsArchivedTotal.Inc()
}

func IncMessageEvent(kind string) {
	messageEventsTotal.WithLabelValues(kind).Inc()
}

func IncCapabilityDecision(subject, action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	capabilityChecksTotal.WithLabelValues(subject, action, decision).Inc()
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
