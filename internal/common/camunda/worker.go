// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"program-matching/internal/common/config"
	"program-matching/internal/common/errors"
	"program-matching/internal/common/metrics"
	"program-matching/internal/common/observability"
)

// JobHandler completes or fails the job itself. The returned error is only
// used for logging and metrics.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// NewWorker opens a job worker for taskType.
func NewWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	obs *observability.Observability,
	logger *zap.Logger,
) *CamundaWorker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(instrument(taskType, handler, obs, logger)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   logger,
		taskType: taskType,
	}
}

// instrument wraps handler with the active-jobs gauge, job metrics and a span.
func instrument(taskType string, handler JobHandler, obs *observability.Observability, logger *zap.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		ctx, span := obs.StartSpan(context.Background(), "job."+taskType,
			attribute.Int64("job.key", job.Key),
			attribute.Int64("process.instance_key", job.ProcessInstanceKey),
		)
		defer span.End()

		err := handler.Handle(client, job)

		status, errorCode := metrics.StatusSuccess, ""
		if err != nil {
			status, errorCode = metrics.StatusError, string(errors.ErrCodeInternal)
			if stdErr, ok := errors.AsStandardError(err); ok {
				errorCode = string(stdErr.Code)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, errorCode)
			logger.Error("handler returned error",
				zap.Error(err),
				zap.String("taskType", taskType),
				zap.Int64("jobKey", job.Key),
			)
		}

		duration := time.Since(start)
		metrics.ObserveJob(taskType, duration, errorCode)
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, duration, status)
	}
}

// Stop closes the job worker and waits for active jobs to finish.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}
