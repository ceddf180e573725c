// Command jobsctl enqueues background jobs by hand and inspects the
// queue, for operators who do not want to wait for the cron schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/pharmsight/pharmsight/internal/app"
	"github.com/pharmsight/pharmsight/jobs"
)

func main() {
	trigger := flag.String("trigger", "", "job to enqueue: alerts:sweep or reports:warmup")
	status := flag.Bool("status", false, "print queue depth and exit")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	ctx := context.Background()

	if *status {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			_ = inspector.Close()
		}()
		info, err := inspector.GetQueueInfo(jobs.QueueDefault)
		if err != nil {
			logger.Error("queue info", slog.Any("error", err))
			os.Exit(1)
		}
		fmt.Printf("queue=%s pending=%d active=%d retry=%d\n", info.Queue, info.Pending, info.Active, info.Retry)
		return
	}

	if *trigger == "" {
		flag.Usage()
		os.Exit(2)
	}

	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	var info *asynq.TaskInfo
	switch *trigger {
	case jobs.TaskAlertSweep:
		info, err = client.EnqueueAlertSweep(ctx, jobs.AlertSweepPayload{})
	case jobs.TaskReportWarmup:
		info, err = client.EnqueueReportWarmup(ctx, jobs.ReportWarmupPayload{})
	default:
		logger.Error("unsupported job", slog.String("job", *trigger))
		os.Exit(2)
	}
	if err != nil {
		logger.Error("enqueue", slog.String("job", *trigger), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("job enqueued", slog.String("job", *trigger), slog.String("task_id", info.ID))
}
