package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/pharmsight/pharmsight/internal/reporting"
	"github.com/pharmsight/pharmsight/internal/stock"
	"github.com/pharmsight/pharmsight/internal/stock/memory"
)

func newWarmupJob(t *testing.T) (*ReportWarmupJob, *memory.Store, *miniredis.Miniredis) {
	t.Helper()
	store := memory.New()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := reporting.NewService(store, reporting.NewCache(client, time.Minute))
	job := NewReportWarmupJob(svc, nil, nil)
	job.clock = func() time.Time { return sweepNow }
	return job, store, mr
}

func TestReportWarmupPopulatesCache(t *testing.T) {
	job, store, mr := newWarmupJob(t)
	ctx := context.Background()

	require.NoError(t, store.InsertProduct(ctx, stock.Product{
		ID: "P001", Name: "Paracétamol", Category: "Antalgique", UnitPrice: 800,
		ExpirationDate: sweepNow.AddDate(1, 0, 0),
	}))
	require.NoError(t, store.UpsertStockLevel(ctx, stock.StockLevel{
		ProductID: "P001", Quantity: 10, LastUpdate: sweepNow,
	}))

	task, err := NewReportWarmupTask(ReportWarmupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))

	keys := mr.Keys()
	require.NotEmpty(t, keys)
}

func TestReportWarmupSkipsUnknownReports(t *testing.T) {
	job, _, _ := newWarmupJob(t)

	task, err := NewReportWarmupTask(ReportWarmupPayload{Reports: []string{"nope"}})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestReportWarmupRejectsMalformedPayload(t *testing.T) {
	job, _, _ := newWarmupJob(t)

	task := asynq.NewTask(TaskReportWarmup, []byte("not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
