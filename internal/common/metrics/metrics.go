// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_handled_total",
			Help: "Total number of jobs handled by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	KnowledgeBuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "knowledge_builds_total",
			Help: "Total number of composed knowledge tree builds",
		},
	)

	KnowledgeCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_overlay_cache_lookups_total",
			Help: "Database overlay cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)

	OverlaySourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_overlay_source_failures_total",
			Help: "Overlay loads that reported the source unavailable",
		},
		[]string{"source"},
	)

	RepliesComposed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_replies_composed_total",
			Help: "Total number of chat replies composed by intent",
		},
		[]string{"intent"},
	)
)
