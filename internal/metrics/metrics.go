package metrics

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codecanvas_sessions_active",
			Help: "Number of currently active editing sessions",
		},
	)

	PreviewRefreshesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codecanvas_preview_refreshes_total",
			Help: "Total preview sandbox generations instantiated",
		},
	)

	StaleSignalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codecanvas_preview_stale_signals_total",
			Help: "Signals dropped because their generation was superseded",
		},
	)

	StreamChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codecanvas_stream_chunks_total",
			Help: "Generator stream chunks applied to the overlay",
		},
	)

	ExecRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecanvas_exec_runs_total",
			Help: "Total remote execution runs by terminal outcome",
		},
		[]string{"outcome"},
	)

	ExecDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codecanvas_exec_duration_seconds",
			Help:    "Wall time from submit to terminal poll status",
			Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 300.0},
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecanvas_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsActive,
		PreviewRefreshesTotal,
		StaleSignalsTotal,
		StreamChunksTotal,
		ExecRunsTotal,
		ExecDuration,
		HTTPRequestsTotal,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// EchoMiddleware returns Echo middleware that counts HTTP requests.
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			HTTPRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Inc()

			return err
		}
	}
}
