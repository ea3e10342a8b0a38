// Package metrics exposes Prometheus instrumentation for provider calls,
// aggregations, the profile cache and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/metadex/metadex/internal/metadata"
)

var (
	// Provider metrics
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadex_provider_calls_total",
			Help: "Total number of provider calls by stage and result",
		},
		[]string{"provider", "stage", "slot", "result"}, // result: "ok", "error"
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metadex_provider_call_duration_seconds",
			Help:    "Duration of provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "stage"},
	)

	// Aggregation metrics
	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadex_aggregations_total",
			Help: "Total number of metadata aggregations by outcome",
		},
		[]string{"media_type", "outcome"}, // outcome: "ok", "empty", "error"
	)

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metadex_aggregation_duration_seconds",
			Help:    "End-to-end duration of metadata aggregations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"media_type"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadex_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metadex_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// Recorder implements metadata.MetricsRecorder on the package metrics.
type Recorder struct{}

// NewRecorder returns a Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

var _ metadata.MetricsRecorder = (*Recorder)(nil)

// ObserveProviderCall records one search or slot fetch.
func (Recorder) ObserveProviderCall(providerID, stage string, slot metadata.Slot, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ProviderCallsTotal.WithLabelValues(providerID, stage, string(slot), result).Inc()
	ProviderCallDuration.WithLabelValues(providerID, stage).Observe(elapsed.Seconds())
}

// ObserveAggregation records one GetMetadata call.
func (Recorder) ObserveAggregation(mt metadata.MediaType, outcome string, elapsed time.Duration) {
	AggregationsTotal.WithLabelValues(string(mt), outcome).Inc()
	AggregationDuration.WithLabelValues(string(mt)).Observe(elapsed.Seconds())
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Middleware records request counts and latency per route pattern.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			RecordAPIRequest(c.Request().Method, endpoint, strconv.Itoa(status), time.Since(start))
			return err
		}
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// Sizer is anything that reports a current size, such as the profile cache.
type Sizer interface {
	Len() int
}

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// RegisterGauges exposes the profile cache size and the WebSocket client
// count. It must be called once per process.
func RegisterGauges(cache Sizer, hub ClientCounter) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "metadex_profile_cache_entries",
			Help: "Current number of cached profiles",
		},
		func() float64 { return float64(cache.Len()) },
	)
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "metadex_websocket_clients",
			Help: "Current number of connected WebSocket clients",
		},
		func() float64 { return float64(hub.ClientCount()) },
	)
}
