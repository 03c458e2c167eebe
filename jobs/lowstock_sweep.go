package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// ReconcilerPort abstracts the low-stock reconciliation for the sweep job.
type ReconcilerPort interface {
	Reconcile(ctx context.Context) error
}

// LowStockSweepJob runs the low-stock reconciliation on a schedule.
type LowStockSweepJob struct {
	reconciler ReconcilerPort
	logger     *slog.Logger
}

// NewLowStockSweepJob constructs the job.
func NewLowStockSweepJob(reconciler ReconcilerPort, logger *slog.Logger) *LowStockSweepJob {
	return &LowStockSweepJob{reconciler: reconciler, logger: logger}
}

// Handle processes TaskLowStockSweep tasks.
func (j *LowStockSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LowStockSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	j.logger.Info("low-stock sweep started", slog.String("reason", payload.Reason))
	if err := j.reconciler.Reconcile(ctx); err != nil {
		j.logger.Error("low-stock sweep failed", slog.Any("error", err))
		return err
	}
	return nil
}
