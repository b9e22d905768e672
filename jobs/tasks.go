package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBillingOverdueScan flips open invoices past their due date to overdue.
	TaskBillingOverdueScan = "billing:overdue_scan"
)

// OverdueScanPayload parameterises one overdue scan. A zero AsOf means
// "now" at execution time.
type OverdueScanPayload struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// NewOverdueScanTask constructs an Asynq task for the overdue scan.
func NewOverdueScanTask() (*asynq.Task, error) {
	data, err := json.Marshal(OverdueScanPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBillingOverdueScan, data), nil
}
