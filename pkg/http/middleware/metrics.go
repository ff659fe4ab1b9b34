package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// Metrics records request count, latency and in-flight requests labelled by echo route template.
func Metrics(reg prometheus.Registerer) echo.MiddlewareFunc {
	f := promauto.With(reg)
	m := httpMetrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finenrich_http_requests_total",
				Help: "HTTP requests by route, method and status class",
			},
			[]string{"route", "method", "class"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finenrich_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route", "method"},
		),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "finenrich_http_in_flight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()
			start := time.Now()

			err := next(c)

			route := routeOf(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			m.requests.WithLabelValues(route, c.Request().Method, statusClass(status)).Inc()
			m.duration.WithLabelValues(route, c.Request().Method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
