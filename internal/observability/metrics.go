package observability

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeather API call rate. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Weather API latency per request. Watch for: p95 > 2s (upstream degradation), p99 > 5s (timeout risk).
	WeatherAPIDuration *prometheus.HistogramVec

	// Gemini API call rate. Watch for: rate_limited share (quota pressure).
	GenerateAPICallsTotal *prometheus.CounterVec

	// Gemini API latency per request. Generation dominates end-to-end latency.
	GenerateAPIDuration *prometheus.HistogramVec

	// Advisory pipeline outcomes by language. Watch for: error vs success ratio per language.
	AdvisoriesTotal *prometheus.CounterVec

	// Advisory failures by response code. Watch for: REGION_NOT_FOUND spikes (bad input),
	// QUOTA_EXCEEDED (generation budget), UPSTREAM_MISCONFIGURED (operator fault).
	AdvisoryFailuresTotal *prometheus.CounterVec

	// Per-crop advisory count (allow-list; others go to "other"). Watch for: top crops, traffic distribution.
	AdvisoriesByCropTotal *prometheus.CounterVec

	// Auth denials by reason. Watch for: invalid_token spikes (probing or stale clients).
	AuthDeniedTotal *prometheus.CounterVec

	// trackedCrops is built from config; used to resolve the crop label.
	trackedCropsMu sync.RWMutex
	trackedCrops   map[string]struct{}
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeather API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeather API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	GenerateAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generateApiCallsTotal",
			Help: "Total number of Gemini generateContent calls",
		},
		[]string{"status"},
	)
	GenerateAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generateApiDurationSeconds",
			Help:    "Gemini generateContent latency in seconds (per request)",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"status"},
	)
	AdvisoriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisoriesTotal",
			Help: "Advisory pipeline outcomes by language",
		},
		[]string{"language", "outcome"},
	)
	AdvisoryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisoryFailuresTotal",
			Help: "Advisory failures by response error code",
		},
		[]string{"code"},
	)
	AdvisoriesByCropTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisoriesByCropTotal",
			Help: "Advisories by crop (allow-list; others use crop=other)",
		},
		[]string{"crop"},
	)
	AuthDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authDeniedTotal",
			Help: "Requests denied by the bearer guard, by reason",
		},
		[]string{"reason"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration,
		GenerateAPICallsTotal, GenerateAPIDuration,
		AdvisoriesTotal, AdvisoryFailuresTotal, AdvisoriesByCropTotal,
		AuthDeniedTotal,
	)
}

// SetTrackedCrops sets the allow-list for crop metrics. Non-tracked crops increment "other".
func SetTrackedCrops(crops []string) {
	trackedCropsMu.Lock()
	defer trackedCropsMu.Unlock()
	trackedCrops = make(map[string]struct{}, len(crops))
	for _, c := range crops {
		trackedCrops[normalizeCropForMetrics(c)] = struct{}{}
	}
}

// RecordAdvisory records one advisory served for the given crop and language.
func RecordAdvisory(crop, language string) {
	AdvisoriesTotal.WithLabelValues(language, "success").Inc()
	c := normalizeCropForMetrics(crop)
	trackedCropsMu.RLock()
	_, ok := trackedCrops[c]
	trackedCropsMu.RUnlock()
	if ok {
		AdvisoriesByCropTotal.WithLabelValues(c).Inc()
	} else {
		AdvisoriesByCropTotal.WithLabelValues("other").Inc()
	}
}

func normalizeCropForMetrics(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
