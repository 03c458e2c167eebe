// Package jobs wires background work through the Asynq queue.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockSweep is the task type for the scheduled low-stock
	// sweep. The sweep runs the same reconciliation as order events so a
	// missed webhook cannot leave the report stale indefinitely.
	TaskLowStockSweep = "lowstock:sweep"
)

// LowStockSweepPayload parameterises a sweep run.
type LowStockSweepPayload struct {
	Reason string `json:"reason"`
}

// NewLowStockSweepTask constructs an Asynq task.
func NewLowStockSweepTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(LowStockSweepPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockSweep, data), nil
}
