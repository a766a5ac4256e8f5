// Package metrics collects and exposes Prometheus metrics for the EMR server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the auth layer and middleware record through.
type Recorder interface {
	RecordLogin(role string, outcome string)
	RecordTokenRefresh(outcome string)
	RecordHTTPRequest(statusCode int, latency time.Duration)
}

// Collector is the Prometheus-backed Recorder implementation.
type Collector struct {
	logins      *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	httpStatus  *prometheus.CounterVec
	httpLatency prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emr_logins_total",
			Help: "Login attempts by role and outcome.",
		}, []string{"role", "outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emr_token_refreshes_total",
			Help: "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emr_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "emr_http_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.refreshes,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

// RecordLogin records a login attempt. Outcome is one of "success",
// "denied", "error".
func (c *Collector) RecordLogin(role string, outcome string) {
	c.logins.WithLabelValues(role, outcome).Inc()
}

// RecordTokenRefresh records a refresh-grant attempt.
func (c *Collector) RecordTokenRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records one completed request.
func (c *Collector) RecordHTTPRequest(statusCode int, latency time.Duration) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(latency.Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware records status code and latency for every request.
func Middleware(rec Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			rec.RecordHTTPRequest(status, time.Since(start))
			return err
		}
	}
}

// Nop is a Recorder that discards everything. Used in tests.
type Nop struct{}

func (Nop) RecordLogin(string, string)                 {}
func (Nop) RecordTokenRefresh(string)                  {}
func (Nop) RecordHTTPRequest(int, time.Duration)       {}
