// Package jobs runs the background sweeps: periodic alert detection and
// report cache warmup.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAlertSweep runs every alert check against the record store.
	TaskAlertSweep = "alerts:sweep"
	// TaskReportWarmup precomputes the cached reports.
	TaskReportWarmup = "reports:warmup"
)

// AlertSweepPayload carries the check parameters. Zero values fall back
// to the engine defaults.
type AlertSweepPayload struct {
	CriticalLevel int     `json:"critical_level"`
	ExpiryDays    int     `json:"expiry_days"`
	Tolerance     float64 `json:"tolerance"`
}

// NewAlertSweepTask constructs an alert sweep task.
func NewAlertSweepTask(payload AlertSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAlertSweep, body, asynq.Queue(QueueDefault)), nil
}

// ReportWarmupPayload selects which cached reports to precompute. An
// empty list warms all of them.
type ReportWarmupPayload struct {
	Reports []string `json:"reports,omitempty"`
}

// NewReportWarmupTask constructs a report warmup task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, body, asynq.Queue(QueueDefault)), nil
}
