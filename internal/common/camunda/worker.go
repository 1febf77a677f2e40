// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"expo-chat-workers/internal/common/metrics"
	"expo-chat-workers/internal/common/observability"
)

// HandlerFunc is the job callback signature shared by all workers.
// Handlers complete or fail the job themselves via the JobClient.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Worker is a running subscription for a single task type.
type Worker struct {
	worker   worker.JobWorker
	taskType string
	logger   *zap.Logger
}

func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handlerFunc HandlerFunc,
	obs *observability.Observability,
	logger *zap.Logger,
) *Worker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(func(jc worker.JobClient, job entities.Job) {
			start := time.Now()
			metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
			defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

			handlerFunc(jc, job)

			elapsed := time.Since(start)
			metrics.WorkerJobsHandled.WithLabelValues(taskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			if obs != nil {
				ctx := context.Background()
				obs.RecordJobProcessed(ctx, taskType)
				obs.RecordJobDuration(ctx, elapsed, taskType)
			}
		}).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", maxJobsActive),
		zap.Duration("timeout", timeout),
	)

	return &Worker{
		worker:   jobWorker,
		taskType: taskType,
		logger:   logger,
	}
}

// Close drains in-flight jobs and stops polling.
func (w *Worker) Close() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
}
