package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pharmsight/pharmsight/internal/stock"
	"github.com/pharmsight/pharmsight/internal/stock/memory"
)

var testNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := NewService(store)
	svc.WithNow(func() time.Time { return testNow })
	return svc, store
}

func seedProduct(t *testing.T, store *memory.Store, id string, expiresIn time.Duration) {
	t.Helper()
	err := store.InsertProduct(context.Background(), stock.Product{
		ID:              id,
		Name:            "Produit " + id,
		Category:        "Antibiotique",
		ExpirationDate:  testNow.Add(expiresIn),
		UnitPrice:       250,
		RegulatoryClass: stock.ClassOrdinaire,
	})
	require.NoError(t, err)
}

func seedLevel(t *testing.T, store *memory.Store, id string, qty int) {
	t.Helper()
	err := store.UpsertStockLevel(context.Background(), stock.StockLevel{
		ProductID: id, Quantity: qty, LastUpdate: testNow, Location: "Magasin principal",
	})
	require.NoError(t, err)
}

func TestDetectCriticalStocksAbsoluteFloor(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedLevel(t, store, "P001", 10) // at the floor: included
	seedLevel(t, store, "P002", 11) // above: excluded
	seedLevel(t, store, "P003", 0)

	found, err := svc.DetectCriticalStocks(ctx, DefaultCriticalLevel)
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "P001", found[0].ProductID)
	require.Equal(t, "P003", found[1].ProductID)
	for _, a := range found {
		require.Equal(t, TypeCriticalThreshold, a.Type)
		require.Equal(t, testNow, a.Date)
		require.NotEmpty(t, a.ID)
	}
}

func TestDetectCriticalStocksRejectsNegativeLevel(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.DetectCriticalStocks(context.Background(), -1)
	require.ErrorIs(t, err, ErrInvalidLevel)
}

func TestDetectThresholdBreachesStrictComparison(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedLevel(t, store, "P001", 5)
	seedLevel(t, store, "P002", 6)
	seedLevel(t, store, "P003", 2) // no threshold row: skipped
	require.NoError(t, store.UpsertThreshold(ctx, stock.StockThreshold{ProductID: "P001", MinimumStock: 20, CriticalStock: 6}))
	require.NoError(t, store.UpsertThreshold(ctx, stock.StockThreshold{ProductID: "P002", MinimumStock: 20, CriticalStock: 6}))

	found, err := svc.DetectThresholdBreaches(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "P001", found[0].ProductID)
	require.Equal(t, 5, found[0].Meta["current_stock"])
	require.Equal(t, 6, found[0].Meta["critical_threshold"])
}

func TestDetectExpiringProductsCalendarDays(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// Expires later today: 0 calendar days, always included.
	seedProduct(t, store, "P001", 2*time.Hour)
	// Exactly 30 days out: included by the inclusive comparison.
	seedProduct(t, store, "P002", 30*24*time.Hour)
	// 31 days out: excluded.
	seedProduct(t, store, "P003", 31*24*time.Hour)

	found, err := svc.DetectExpiringProducts(ctx, DefaultExpiryDays)
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "P001", found[0].ProductID)
	require.Equal(t, "P002", found[1].ProductID)
	require.Equal(t, TypeExpiry, found[0].Type)
}

func TestDetectExpiringProductsRejectsNegativeDays(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.DetectExpiringProducts(context.Background(), -1)
	require.ErrorIs(t, err, ErrInvalidDays)
}

func TestAuditInventoryReportsGap(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedProduct(t, store, "P001", 90*24*time.Hour)
	seedLevel(t, store, "P001", 100)
	// Full history sums to 80: +100 in, -20 out.
	require.NoError(t, store.AppendMovement(ctx, stock.Movement{Type: stock.MovementEntree, ProductID: "P001", Quantity: 100, Date: testNow.AddDate(0, -8, 0)}))
	require.NoError(t, store.AppendMovement(ctx, stock.Movement{Type: stock.MovementSortie, ProductID: "P001", Quantity: 20, Date: testNow.AddDate(0, -7, 0)}))

	found, err := svc.AuditInventory(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, TypeInventoryGap, found[0].Type)
	require.Equal(t, 100, found[0].Meta["stock"])
	require.Equal(t, 80, found[0].Meta["attendu"])
	require.Equal(t, 20, found[0].Meta["ecart"])
}

func TestAuditInventoryWithinTolerance(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedProduct(t, store, "P001", 90*24*time.Hour)
	seedLevel(t, store, "P001", 25)
	require.NoError(t, store.AppendMovement(ctx, stock.Movement{Type: stock.MovementEntree, ProductID: "P001", Quantity: 20, Date: testNow.AddDate(0, -1, 0)}))

	// |25 - 20| = 5 is inside the fixed tolerance.
	found, err := svc.AuditInventory(ctx)
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestAuditInventoryTheoreticalGoesNegative(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedProduct(t, store, "P001", 90*24*time.Hour)
	// Live stock floored at zero; theoretical sum is -30.
	seedLevel(t, store, "P001", 0)
	require.NoError(t, store.AppendMovement(ctx, stock.Movement{Type: stock.MovementRupture, ProductID: "P001", Quantity: 30, Date: testNow.AddDate(0, -2, 0)}))

	found, err := svc.AuditInventory(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, -30, found[0].Meta["attendu"])
	require.Equal(t, 30, found[0].Meta["ecart"])
}

func TestVerifyDeliveriesConformantByConstruction(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.AppendMovement(ctx, stock.Movement{Type: stock.MovementEntree, ProductID: "P001", Quantity: 40, Date: testNow}))
	require.NoError(t, store.AppendMovement(ctx, stock.Movement{Type: stock.MovementEntree, ProductID: "P002", Quantity: 15, Date: testNow}))

	// Received and expected read the same recorded quantity, so every
	// delivery stays within any non-negative tolerance.
	found, err := svc.VerifyDeliveries(ctx, DefaultDeliveryTolerance)
	require.NoError(t, err)
	require.Empty(t, found)

	found, err = svc.VerifyDeliveries(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestVerifyDeliveriesRejectsNegativeTolerance(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.VerifyDeliveries(context.Background(), -0.1)
	require.ErrorIs(t, err, ErrInvalidTolerance)
}
