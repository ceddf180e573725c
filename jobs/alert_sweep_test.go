package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/pharmsight/pharmsight/internal/alerts"
	"github.com/pharmsight/pharmsight/internal/stock"
	"github.com/pharmsight/pharmsight/internal/stock/memory"
)

var sweepNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func newSweepJob(t *testing.T) (*AlertSweepJob, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := alerts.NewService(store)
	svc.WithNow(func() time.Time { return sweepNow })
	job := NewAlertSweepJob(svc, nil, nil)
	job.clock = func() time.Time { return sweepNow }
	return job, store
}

func TestAlertSweepRunsAllChecks(t *testing.T) {
	job, store := newSweepJob(t)
	ctx := context.Background()

	require.NoError(t, store.InsertProduct(ctx, stock.Product{
		ID:             "P001",
		Name:           "Amoxicilline",
		Category:       "Antibiotique",
		ExpirationDate: sweepNow.AddDate(0, 0, 10),
		UnitPrice:      1200,
	}))
	require.NoError(t, store.UpsertStockLevel(ctx, stock.StockLevel{
		ProductID: "P001", Quantity: 2, LastUpdate: sweepNow,
	}))

	task, err := NewAlertSweepTask(AlertSweepPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(ctx, task))
}

func TestAlertSweepRejectsMalformedPayload(t *testing.T) {
	job, _ := newSweepJob(t)

	// A payload that is not JSON must be dropped without retry.
	task := asynq.NewTask(TaskAlertSweep, []byte("{not-json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestAlertSweepIsIdempotent(t *testing.T) {
	job, store := newSweepJob(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertStockLevel(ctx, stock.StockLevel{
		ProductID: "P001", Quantity: 1, LastUpdate: sweepNow,
	}))

	task, err := NewAlertSweepTask(AlertSweepPayload{CriticalLevel: 5})
	require.NoError(t, err)

	require.NoError(t, job.Handle(ctx, task))
	require.NoError(t, job.Handle(ctx, task))

	// The sweep reads but never writes; the journal stays empty.
	movements, err := store.Movements(ctx, stock.MovementFilter{})
	require.NoError(t, err)
	require.Empty(t, movements)
}
