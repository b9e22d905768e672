package billing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/keystone-pm/keystone/internal/jobs"
	"github.com/keystone-pm/keystone/jobs"
)

// OverdueScanJob flips open invoices past their due date to overdue.
type OverdueScanJob struct {
	service *Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOverdueScanJob constructs a job handler.
func NewOverdueScanJob(service *Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueScanJob {
	return &OverdueScanJob{
		service: service,
		logger:  logger,
		metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *OverdueScanJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.service == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload jobs.OverdueScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = j.clock()
	}

	tracker := j.metrics.Track(jobs.TaskBillingOverdueScan)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.loggerWith(asOf)
	logger.Info("starting overdue scan")

	count, err := j.service.MarkOverdue(ctx, asOf)
	if err != nil {
		logger.Error("overdue scan failed", slog.Any("error", err))
		return err
	}
	j.metrics.AddOverdue(count)

	logger.Info("completed overdue scan", slog.Int("marked_overdue", count))
	return nil
}

func (j *OverdueScanJob) loggerWith(asOf time.Time) *slog.Logger {
	base := j.logger
	if base == nil {
		base = slog.Default()
	}
	return base.With(slog.String("job", jobs.TaskBillingOverdueScan), slog.Time("as_of", asOf))
}
