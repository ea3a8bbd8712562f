package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Workflow metrics
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advisor_stage_duration_seconds",
			Help:    "Workflow stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	StageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_stage_failures_total",
			Help: "Total number of aborted workflow stages",
		},
		[]string{"stage"},
	)

	IntentClassifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_intent_classifications_total",
			Help: "Total number of classified queries",
		},
		[]string{"intent", "method"}, // method: rules|model
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_agent_calls_total",
			Help: "Total number of agent runs",
		},
		[]string{"agent", "status"}, // status: success|error
	)

	AgentTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_agent_tokens_total",
			Help: "Total tokens used by agents",
		},
		[]string{"agent", "type"}, // type: input|output
	)

	// Retrieval metrics
	RetrievalSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_retrieval_searches_total",
			Help: "Total number of knowledge searches",
		},
		[]string{"domain", "outcome"}, // outcome: hit|miss|error
	)

	// Market data metrics
	MarketDataCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_marketdata_calls_total",
			Help: "Total number of market data calls",
		},
		[]string{"source", "endpoint", "status"},
	)
)

// Register registers all metrics with the default registry. Call once
// at startup.
func Register() {
	prometheus.MustRegister(
		StageDuration,
		StageFailures,
		IntentClassifications,
		AgentCalls,
		AgentTokens,
		RetrievalSearches,
		MarketDataCalls,
	)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Workflow is the handle workflow code records through; it exists so
// the engine takes a dependency instead of touching package globals.
type Workflow struct{}

// NewWorkflow creates the workflow metrics handle.
func NewWorkflow() *Workflow {
	return &Workflow{}
}

// StageCompleted records one finished stage.
func (w *Workflow) StageCompleted(stage string, elapsed time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// StageFailed records one aborted stage.
func (w *Workflow) StageFailed(stage string) {
	StageFailures.WithLabelValues(stage).Inc()
}

// IntentClassified records one routed query.
func (w *Workflow) IntentClassified(intent, method string) {
	IntentClassifications.WithLabelValues(intent, method).Inc()
}
