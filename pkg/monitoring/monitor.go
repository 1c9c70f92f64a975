package monitoring

import (
	"strconv"
	"sync"
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

	HabitsLogged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habits_logged_total",
			Help: "Habit records stored, by origin",
		},
		[]string{"source"},
	)

	InsightsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_generated_total",
			Help: "Insight reports computed, by risk level",
		},
		[]string{"risk_level"},
	)

	InsightCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_cache_hits_total",
			Help: "Insight reports served from cache",
		},
	)

	RemindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Reminder emails, by kind and result",
		},
		[]string{"kind", "result"},
	)

	UploadRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_rows_total",
			Help: "Rows read from uploaded files, by outcome",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(HabitsLogged)
		prometheus.MustRegister(InsightsGenerated)
		prometheus.MustRegister(InsightCacheHits)
		prometheus.MustRegister(RemindersSent)
		prometheus.MustRegister(UploadRows)
	})
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
