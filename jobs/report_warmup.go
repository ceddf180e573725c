package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/pharmsight/pharmsight/internal/jobs"
	"github.com/pharmsight/pharmsight/internal/reporting"
)

// ReportWarmupJob precomputes the cached reports so the first request
// after a cache bump does not pay the aggregation cost.
type ReportWarmupJob struct {
	Reports *reporting.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reports *reporting.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Reports: reports,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	tracker := j.metrics().Track(TaskReportWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	warmers := map[string]func(context.Context) error{
		"value": func(ctx context.Context) error {
			_, err := j.Reports.TotalStockValue(ctx)
			return err
		},
		"categories": func(ctx context.Context) error {
			_, err := j.Reports.CategoryStats(ctx)
			return err
		},
		"kpi": func(ctx context.Context) error {
			_, err := j.Reports.KPIReport(ctx)
			return err
		},
		"performance": func(ctx context.Context) error {
			_, err := j.Reports.PerformanceReport(ctx)
			return err
		},
	}

	selected := payload.Reports
	if len(selected) == 0 {
		selected = []string{"value", "categories", "kpi", "performance"}
	}

	logger := j.logger()
	logger.Info("starting report warmup", slog.Int("reports", len(selected)))

	warmed := 0
	for _, name := range selected {
		warm, ok := warmers[name]
		if !ok {
			logger.Warn("unknown report requested", slog.String("report", name))
			continue
		}
		if err := warm(ctx); err != nil {
			resultErr = err
			logger.Error("warm report", slog.String("report", name), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed report warmup",
		slog.Int("warmed", warmed),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
