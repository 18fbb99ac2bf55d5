package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute - метка для запросов мимо зарегистрированных маршрутов
const unmatchedRoute = "unmatched"

// PrometheusMiddleware считает HTTP-метрики админского API.
// Метка route - шаблон маршрута gin (/api/chunks/:x/:y/:z), а не сырой URL,
// метка class - класс статуса (2xx, 4xx, 5xx).
type PrometheusMiddleware struct {
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewPrometheusMiddleware регистрирует метрики с префиксом namespace в reg
func NewPrometheusMiddleware(namespace string, reg prometheus.Registerer) *PrometheusMiddleware {
	pm := &PrometheusMiddleware{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов по маршрутам.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"method", "route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_inflight",
			Help:      "Запросы в обработке.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Запросы по маршрутам и классам статуса.",
		}, []string{"method", "route", "class"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "Ответы с кодом 4xx/5xx по точному статусу.",
		}, []string{"route", "status"}),
	}

	reg.MustRegister(pm.duration, pm.inflight, pm.requests, pm.errors)
	return pm
}

// Handler подключается через router.Use()
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pm.inflight.Inc()
		defer pm.inflight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := c.Writer.Status()

		pm.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		pm.requests.WithLabelValues(c.Request.Method, route, statusClass(status)).Inc()
		if status >= http.StatusBadRequest {
			pm.errors.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}
	}
}

// statusClass сворачивает код в класс: 404 -> "4xx"
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}

// RegisterMetricsEndpoint отдаёт h по GET /metrics. Запросы к самому
// эндпоинту тоже попадают в метрики под route="/metrics".
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r gin.IRoutes, h http.Handler) {
	r.GET("/metrics", gin.WrapH(h))
}
