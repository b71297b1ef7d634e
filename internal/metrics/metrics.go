// Package metrics defines the Prometheus instrumentation for flowci.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"flowci/internal/history"
)

const (
	// Metric names.
	MetricNameBuildInfo       = "flowci_build_info"
	MetricNameRuns            = "flowci_runs_total"
	MetricNameSteps           = "flowci_steps_total"
	MetricNameRunDuration     = "flowci_run_duration_seconds"
	MetricNameWebhookRequests = "flowci_webhook_requests_total"
	MetricNameQueueDepth      = "flowci_queue_depth"

	// Labels.
	LabelVersion = "version"
	LabelCommit  = "commit"
	LabelDate    = "date"
	LabelStatus  = "status"
	LabelOutcome = "outcome"

	// Webhook outcomes.
	OutcomeAccepted   = "accepted"
	OutcomeNoMatch    = "no_match"
	OutcomeBadPayload = "bad_payload"
	OutcomeRejected   = "rejected"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricNameBuildInfo,
			Help: "Build information of the flowci binary",
		},
		[]string{LabelVersion, LabelCommit, LabelDate},
	)

	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRuns,
			Help: "Number of workflow runs by final status",
		},
		[]string{LabelStatus},
	)

	Steps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSteps,
			Help: "Number of executed steps by final status",
		},
		[]string{LabelStatus},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameRunDuration,
			Help:    "Wall-clock duration of workflow runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~34m
		},
	)

	WebhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWebhookRequests,
			Help: "Number of webhook deliveries by outcome",
		},
		[]string{LabelOutcome},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameQueueDepth,
			Help: "Number of runs waiting for or holding a worker",
		},
	)
)

// ObserveRun records a finished run: its status, duration, and the status
// of every step of every job instance.
func ObserveRun(run *history.Run) {
	Runs.WithLabelValues(string(run.Status)).Inc()
	RunDuration.Observe(run.Duration().Seconds())
	for _, job := range run.Jobs {
		for _, step := range job.Steps {
			Steps.WithLabelValues(string(step.Status)).Inc()
		}
	}
}
