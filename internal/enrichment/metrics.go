package enrichment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "incidentroom"

var (
	jobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "jobs_submitted_total",
			Help:      "Total jobs accepted into the enrichment queue",
		},
	)

	jobsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "jobs_rejected_total",
			Help:      "Total jobs dropped because the queue was full",
		},
	)

	jobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "jobs_total",
			Help:      "Total jobs taken off the queue by outcome",
		},
		[]string{"status"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "queue_depth",
			Help:      "Number of jobs waiting in the enrichment queue",
		},
	)

	jobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "job_duration_seconds",
			Help:      "Time from dequeue to job completion",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// recordJobSubmitted records a successful queue submission.
func recordJobSubmitted() {
	jobsSubmitted.Inc()
}

// recordJobRejected records a job dropped by the full queue.
func recordJobRejected() {
	jobsRejected.Inc()
}

// recordJobProcessed records a processed job and its duration.
func recordJobProcessed(status string, duration time.Duration) {
	jobsProcessed.WithLabelValues(status).Inc()
	jobDuration.Observe(duration.Seconds())
}

// recordQueueDepth updates the queue depth gauge.
func recordQueueDepth(depth int) {
	queueDepth.Set(float64(depth))
}
