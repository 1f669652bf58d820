package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Jobs
	JobsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "iacgen_jobs_created_total",
			Help: "Total number of generation jobs created",
		},
	)
	JobStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iacgen_job_status_changes_total",
			Help: "Number of job status transitions",
		},
		[]string{"from", "to"},
	)
	ActiveJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "iacgen_jobs_active",
			Help: "Current number of active jobs",
		},
	)

	// Sessions
	SessionResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iacgen_session_results_total",
			Help: "Terminal session results by status",
		},
		[]string{"status"}, // succeeded|exhausted|aborted
	)
	SessionAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "iacgen_session_attempts",
			Help:    "Attempts consumed per session",
			Buckets: prometheus.LinearBuckets(1, 1, 6),
		},
	)
	SessionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "iacgen_session_duration_seconds",
			Help:    "Histogram of session durations in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s..128s
		},
	)

	// Retrieval
	RetrievalQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iacgen_retrieval_queries_total",
			Help: "Knowledge-base queries by strategy",
		},
		[]string{"strategy"},
	)
	RetrievedSnippets = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "iacgen_retrieved_snippets",
			Help:    "Snippets returned per retrieval query",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		},
	)

	// Validation
	ValidationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iacgen_validation_runs_total",
			Help: "Number of validation runs by validator type and result",
		},
		[]string{"validator", "result"}, // validator: structural|terraform, result: pass|fail|error
	)
	ValidationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iacgen_validation_duration_seconds",
			Help:    "Duration of validation runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"validator"},
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iacgen_llm_requests_total",
			Help: "Number of LLM requests by model",
		},
		[]string{"model"},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iacgen_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		JobsCreated,
		JobStatusChanges,
		ActiveJobs,

		SessionResults,
		SessionAttempts,
		SessionDurationSeconds,

		RetrievalQueries,
		RetrievedSnippets,

		ValidationRuns,
		ValidationDurationSeconds,

		LLMRequests,

		Errors,
	)
}

func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	_ = http.ListenAndServe(addr, nil)
}

// Jobs
func IncJobsCreated() {
	JobsCreated.Inc()
}

func IncJobStatusChange(from, to string) {
	JobStatusChanges.WithLabelValues(from, to).Inc()
}

func SetActiveJobs(n int) {
	ActiveJobs.Set(float64(n))
}

// Sessions
func IncSessionResult(status string) {
	SessionResults.WithLabelValues(status).Inc()
}

func ObserveSessionAttempts(n int) {
	SessionAttempts.Observe(float64(n))
}

func ObserveSessionDuration(d time.Duration) {
	SessionDurationSeconds.Observe(d.Seconds())
}

// Retrieval
func IncRetrievalQuery(strategy string) {
	RetrievalQueries.WithLabelValues(strategy).Inc()
}

func ObserveRetrievedSnippets(n int) {
	RetrievedSnippets.Observe(float64(n))
}

// Validation
func IncValidationRun(validator, result string) {
	ValidationRuns.WithLabelValues(validator, result).Inc()
}

func ObserveValidationDuration(validator string, d time.Duration) {
	ValidationDurationSeconds.WithLabelValues(validator).Observe(d.Seconds())
}

// LLM
func IncLLMRequest(model string) {
	LLMRequests.WithLabelValues(model).Inc()
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
