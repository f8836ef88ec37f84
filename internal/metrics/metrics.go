package metrics

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/actuallystonmai/fitness-plan-service/internal/fallback"
	"github.com/actuallystonmai/fitness-plan-service/internal/model"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_plan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitness_plan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 60, 90},
		},
		[]string{"method", "route"},
	)

	PlansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_plan_plans_total",
			Help: "Plan requests by final outcome",
		},
		[]string{"outcome"},
	)

	ModelAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_plan_model_attempts_total",
			Help: "generateContent attempts by candidate and outcome",
		},
		[]string{"api_version", "model", "phase", "outcome"},
	)

	ModelAttemptLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitness_plan_model_attempt_latency_seconds",
			Help:    "generateContent attempt latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 20, 30},
		},
		[]string{"api_version", "phase"},
	)

	Discoveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_plan_model_discoveries_total",
			Help: "Model listing calls by API version and outcome",
		},
		[]string{"api_version", "outcome"},
	)
)

// Plan outcomes
const (
	OutcomeSuccess      = "success"
	OutcomeExhausted    = "exhausted"
	OutcomeConfigError  = "config_error"
	OutcomeInvalidInput = "invalid_input"
	OutcomeError        = "error"
)

// Recorder feeds orchestrator events into the Prometheus collectors.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (Recorder) RecordAttempt(_ context.Context, _ uuid.UUID, a fallback.Attempt) {
	ModelAttempts.WithLabelValues(a.Candidate.APIVersion, a.Candidate.ID(), string(a.Phase), model.Kind(a.Err)).Inc()
	ModelAttemptLatency.WithLabelValues(a.Candidate.APIVersion, string(a.Phase)).Observe(a.Elapsed.Seconds())
}

func (Recorder) RecordDiscovery(_ context.Context, _ uuid.UUID, d fallback.Discovery) {
	Discoveries.WithLabelValues(d.APIVersion, model.Kind(d.Err)).Inc()
}
