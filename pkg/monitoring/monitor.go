package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	SessionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_sessions_total",
			Help: "Interview sessions by lifecycle event",
		},
		[]string{"event"}, // started / completed / abandoned
	)

	TurnFinalizedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_turns_finalized_total",
			Help: "Finalized question turns by cause",
		},
		[]string{"cause"}, // hard_timeout / silence_timeout / manual
	)

	JudgeFallbackCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_judge_fallbacks_total",
			Help: "Times the judge collaborator failed and scoring fell back to heuristics",
		},
	)

	ScoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_scoring_duration_seconds",
			Help:    "Duration of the scoring pipeline per finalized turn",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	WSMessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_ws_messages_total",
			Help: "Transcript websocket messages by type and direction",
		},
		[]string{"type", "direction"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SessionCounter)
	prometheus.MustRegister(TurnFinalizedCounter)
	prometheus.MustRegister(JudgeFallbackCounter)
	prometheus.MustRegister(ScoringDuration)
	prometheus.MustRegister(WSMessageCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
