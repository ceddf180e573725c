package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pharmsight/pharmsight/internal/alerts"
	jobmetrics "github.com/pharmsight/pharmsight/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AlertSweepJob runs every alert check and logs what it finds. The
// sweep never mutates the store; alerts stay derivable from the
// records, so re-running is always safe.
type AlertSweepJob struct {
	Alerts  *alerts.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAlertSweepJob wires dependencies for the sweep handler.
func NewAlertSweepJob(alertsSvc *alerts.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AlertSweepJob {
	return &AlertSweepJob{
		Alerts:  alertsSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one sweep.
func (j *AlertSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Alerts == nil {
		return errors.New("alert sweep: handler not configured")
	}
	var payload AlertSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.CriticalLevel <= 0 {
		payload.CriticalLevel = alerts.DefaultCriticalLevel
	}
	if payload.ExpiryDays <= 0 {
		payload.ExpiryDays = alerts.DefaultExpiryDays
	}
	if payload.Tolerance <= 0 {
		payload.Tolerance = alerts.DefaultDeliveryTolerance
	}

	start := j.now()
	tracker := j.metrics().Track(TaskAlertSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.Int("critical_level", payload.CriticalLevel),
		slog.Int("expiry_days", payload.ExpiryDays),
	)
	logger.Info("starting alert sweep")

	checks := []struct {
		name string
		run  func(context.Context) ([]alerts.Alert, error)
	}{
		{"critical stocks", func(ctx context.Context) ([]alerts.Alert, error) {
			return j.Alerts.DetectCriticalStocks(ctx, payload.CriticalLevel)
		}},
		{"threshold breaches", j.Alerts.DetectThresholdBreaches},
		{"expiring products", func(ctx context.Context) ([]alerts.Alert, error) {
			return j.Alerts.DetectExpiringProducts(ctx, payload.ExpiryDays)
		}},
		{"inventory audit", j.Alerts.AuditInventory},
		{"delivery conformity", func(ctx context.Context) ([]alerts.Alert, error) {
			return j.Alerts.VerifyDeliveries(ctx, payload.Tolerance)
		}},
	}

	total := 0
	for _, check := range checks {
		found, err := check.run(ctx)
		if err != nil {
			resultErr = err
			logger.Error("sweep check failed", slog.String("check", check.name), slog.Any("error", err))
			return resultErr
		}
		byType := make(map[alerts.Type]int)
		for _, a := range found {
			byType[a.Type]++
			logger.Warn("alert raised",
				slog.String("check", check.name),
				slog.String("type", string(a.Type)),
				slog.String("product_id", a.ProductID),
				slog.String("message", a.Message),
			)
		}
		for alertType, n := range byType {
			j.metrics().AddAlerts(string(alertType), n)
		}
		total += len(found)
	}

	logger.Info("completed alert sweep",
		slog.Int("alerts", total),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *AlertSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAlertSweep))
	}
	return slog.Default().With(slog.String("job", TaskAlertSweep))
}

func (j *AlertSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AlertSweepJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
