package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder on a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	codesGenerated  prometheus.Counter
	codeValidations *prometheus.CounterVec
	codesCleaned    prometheus.Counter
	households      prometheus.Counter
	membersLeft     *prometheus.CounterVec
	requests        *prometheus.HistogramVec
}

// NewPrometheus registers the hearth collectors plus the Go and process
// collectors on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	p := &PrometheusRecorder{
		registry: reg,
		codesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "verification_codes_generated_total",
			Help:      "Verification codes issued.",
		}),
		codeValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "verification_code_validations_total",
			Help:      "Verification code validation attempts by outcome.",
		}, []string{"outcome"}),
		codesCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "verification_codes_cleaned_total",
			Help:      "Expired or used verification codes removed by cleanup.",
		}),
		households: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "households_created_total",
			Help:      "Households created.",
		}),
		membersLeft: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "household_departures_total",
			Help:      "Members leaving a household by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hearth",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.codesGenerated,
		p.codeValidations,
		p.codesCleaned,
		p.households,
		p.membersLeft,
		p.requests,
	)
	return p
}

func (p *PrometheusRecorder) IncCodeGenerated() { p.codesGenerated.Inc() }

func (p *PrometheusRecorder) IncCodeValidation(outcome string) {
	p.codeValidations.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddCodesCleaned(n int64) { p.codesCleaned.Add(float64(n)) }

func (p *PrometheusRecorder) IncHouseholdCreated() { p.households.Inc() }

func (p *PrometheusRecorder) IncMemberLeft(outcome string) {
	p.membersLeft.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	p.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
