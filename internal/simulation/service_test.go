package simulation

import (
	"context"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pharmsight/pharmsight/internal/stock"
	"github.com/pharmsight/pharmsight/internal/stock/memory"
)

var testNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

type countingBumper struct {
	calls int
}

func (b *countingBumper) Bump(ctx context.Context) error {
	b.calls++
	return nil
}

func newTestService(t *testing.T) (*Service, *memory.Store, *countingBumper) {
	t.Helper()
	store := memory.New()
	bumper := &countingBumper{}
	svc := NewService(store, bumper, slog.New(slog.DiscardHandler))
	svc.WithNow(func() time.Time { return testNow })
	svc.WithRand(rand.New(rand.NewSource(42)))
	return svc, store, bumper
}

func TestUpdateStockAppliesDelta(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertStockLevel(ctx, stock.StockLevel{
		ProductID: "P001", Quantity: 10, LastUpdate: testNow, Location: "Réserve",
	}))

	require.NoError(t, svc.UpdateStock(ctx, stock.Movement{
		Type: stock.MovementSortie, ProductID: "P001", Quantity: 4, Date: testNow,
	}))

	level, err := store.StockLevelByProduct(ctx, "P001")
	require.NoError(t, err)
	require.Equal(t, 6, level.Quantity)
	require.Equal(t, "Réserve", level.Location)
	require.Equal(t, testNow, level.LastUpdate)
}

func TestUpdateStockFloorsAtZero(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertStockLevel(ctx, stock.StockLevel{
		ProductID: "P001", Quantity: 3, LastUpdate: testNow,
	}))

	require.NoError(t, svc.UpdateStock(ctx, stock.Movement{
		Type: stock.MovementRupture, ProductID: "P001", Quantity: 8, Date: testNow,
	}))

	level, err := store.StockLevelByProduct(ctx, "P001")
	require.NoError(t, err)
	require.Equal(t, 0, level.Quantity)
}

func TestUpdateStockCreatesMissingLevel(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpdateStock(ctx, stock.Movement{
		Type: stock.MovementEntree, ProductID: "P009", Quantity: 7, Date: testNow,
	}))

	level, err := store.StockLevelByProduct(ctx, "P009")
	require.NoError(t, err)
	require.Equal(t, 7, level.Quantity)
	require.Equal(t, "Magasin principal", level.Location)
}

func TestUpdateStockIgnoresTransfers(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertStockLevel(ctx, stock.StockLevel{
		ProductID: "P001", Quantity: 5, LastUpdate: testNow,
	}))

	require.NoError(t, svc.UpdateStock(ctx, stock.Movement{
		Type: stock.MovementTransfert, ProductID: "P001", Quantity: 3, Date: testNow,
	}))

	level, err := store.StockLevelByProduct(ctx, "P001")
	require.NoError(t, err)
	require.Equal(t, 5, level.Quantity)
}

func TestRunSeedsStore(t *testing.T) {
	svc, store, bumper := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Run(ctx, 3, 4))

	products, err := store.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 4)
	for _, p := range products {
		require.Contains(t, categories, p.Category)
		require.GreaterOrEqual(t, p.UnitPrice, 500.0)
		require.LessOrEqual(t, p.UnitPrice, 5000.0)
		require.True(t, p.ExpirationDate.After(testNow.AddDate(0, 0, 59)))
		require.True(t, p.ExpirationDate.Before(testNow.AddDate(0, 0, 181)))
	}

	thresholds, err := store.Thresholds(ctx)
	require.NoError(t, err)
	require.Len(t, thresholds, 4)

	movements, err := store.Movements(ctx, stock.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movements, 4*3*movementsPerMonth)

	require.Equal(t, 1, bumper.calls)
}

func TestRunStockNeverNegative(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Run(ctx, 6, 10))

	levels, err := store.StockLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 10)
	for _, level := range levels {
		require.GreaterOrEqual(t, level.Quantity, 0)
	}
}

func TestRunIsDeterministicUnderSeed(t *testing.T) {
	ctx := context.Background()

	run := func() []stock.Movement {
		svc, store, _ := newTestService(t)
		require.NoError(t, svc.Run(ctx, 2, 3))
		movements, err := store.Movements(ctx, stock.MovementFilter{})
		require.NoError(t, err)
		return movements
	}

	require.Equal(t, run(), run())
}

func TestRunRejectsInvalidParams(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.Run(ctx, 0, 5), ErrInvalidRun)
	require.ErrorIs(t, svc.Run(ctx, 3, 0), ErrInvalidRun)
}

func TestResetClearsStoreAndBumps(t *testing.T) {
	svc, store, bumper := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Run(ctx, 1, 2))
	require.NoError(t, svc.Reset(ctx))

	products, err := store.Products(ctx)
	require.NoError(t, err)
	require.Empty(t, products)

	require.Equal(t, 2, bumper.calls)
}
