package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pharmsight/pharmsight/internal/stock"
)

// Store lists the read capabilities the engine consumes.
type Store interface {
	Products(ctx context.Context) ([]stock.Product, error)
	StockLevels(ctx context.Context) ([]stock.StockLevel, error)
	StockLevelByProduct(ctx context.Context, productID string) (stock.StockLevel, error)
	Thresholds(ctx context.Context) ([]stock.StockThreshold, error)
	Movements(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error)
}

// Service runs each check as an independent stateless predicate pass.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService builds Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the engine clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

func (s *Service) newAlert(productID string, typ Type, message string) Alert {
	return Alert{
		ID:        uuid.NewString(),
		ProductID: productID,
		Type:      typ,
		Message:   message,
		Date:      s.now(),
	}
}

// DetectCriticalStocks flags every stock level at or under the supplied
// absolute floor. This is the global sanity check; the per-product
// business rule lives in DetectThresholdBreaches.
func (s *Service) DetectCriticalStocks(ctx context.Context, criticalLevel int) ([]Alert, error) {
	if criticalLevel < 0 {
		return nil, ErrInvalidLevel
	}
	levels, err := s.store.StockLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("alerts: stock levels: %w", err)
	}
	found := make([]Alert, 0)
	for _, l := range levels {
		if l.Quantity <= criticalLevel {
			found = append(found, s.newAlert(l.ProductID, TypeCriticalThreshold,
				fmt.Sprintf("Stock critique pour %s (%d unités)", l.ProductID, l.Quantity)))
		}
	}
	return found, nil
}

// DetectThresholdBreaches flags stock levels strictly below their own
// critical threshold. Products without a threshold row are skipped;
// the check is inapplicable to them.
func (s *Service) DetectThresholdBreaches(ctx context.Context) ([]Alert, error) {
	levels, err := s.store.StockLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("alerts: stock levels: %w", err)
	}
	thresholds, err := s.store.Thresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("alerts: thresholds: %w", err)
	}
	critical := make(map[string]int, len(thresholds))
	for _, t := range thresholds {
		critical[t.ProductID] = t.CriticalStock
	}
	found := make([]Alert, 0)
	for _, l := range levels {
		limit, ok := critical[l.ProductID]
		if !ok || l.Quantity >= limit {
			continue
		}
		a := s.newAlert(l.ProductID, TypeCriticalThreshold,
			fmt.Sprintf("Stock %d sous le seuil critique %d pour %s", l.Quantity, limit, l.ProductID))
		a.Meta = map[string]any{"current_stock": l.Quantity, "critical_threshold": limit}
		found = append(found, a)
	}
	return found, nil
}

// DetectExpiringProducts flags products whose expiration date is within
// daysLimit calendar days. Time of day is ignored on both sides, so a
// product expiring today always qualifies.
func (s *Service) DetectExpiringProducts(ctx context.Context, daysLimit int) ([]Alert, error) {
	if daysLimit < 0 {
		return nil, ErrInvalidDays
	}
	products, err := s.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("alerts: products: %w", err)
	}
	today := truncateToDay(s.now())
	found := make([]Alert, 0)
	for _, p := range products {
		days := int(truncateToDay(p.ExpirationDate).Sub(today).Hours() / 24)
		if days <= daysLimit {
			found = append(found, s.newAlert(p.ID, TypeExpiry,
				fmt.Sprintf("Produit %s proche de péremption (%s)", p.ID, p.ExpirationDate.Format("2006-01-02"))))
		}
	}
	return found, nil
}

// AuditInventory recomputes the theoretical quantity of every product
// from the full movement history and compares it with the live stock
// level. The theoretical sum is not floored at zero while the live
// level is, so the two legitimately diverge; a gap larger than the
// fixed tolerance is the signal this audit exists to surface.
// Cost is O(total movement count).
func (s *Service) AuditInventory(ctx context.Context) ([]Alert, error) {
	products, err := s.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("alerts: products: %w", err)
	}
	found := make([]Alert, 0)
	for _, p := range products {
		stored := 0
		level, err := s.store.StockLevelByProduct(ctx, p.ID)
		switch {
		case err == nil:
			stored = level.Quantity
		case errors.Is(err, stock.ErrNotFound):
		default:
			return nil, fmt.Errorf("alerts: stock level %s: %w", p.ID, err)
		}

		movements, err := s.store.Movements(ctx, stock.MovementFilter{ProductID: p.ID})
		if err != nil {
			return nil, fmt.Errorf("alerts: movements %s: %w", p.ID, err)
		}
		theoretical := 0
		for _, m := range movements {
			theoretical += m.Delta()
		}

		gap := stored - theoretical
		if gap < 0 {
			gap = -gap
		}
		if gap > auditTolerance {
			a := s.newAlert(p.ID, TypeInventoryGap,
				fmt.Sprintf("Écart détecté : stock=%d, attendu=%d", stored, theoretical))
			a.Meta = map[string]any{"stock": stored, "attendu": theoretical, "ecart": gap}
			found = append(found, a)
		}
	}
	return found, nil
}

// VerifyDeliveries compares received against expected quantities for
// every ENTREE movement with a relative tolerance. No independent
// expected-quantity record exists yet, so both sides read the recorded
// quantity; the comparison shape is kept for when purchase orders
// supply a genuine expected figure.
func (s *Service) VerifyDeliveries(ctx context.Context, tolerance float64) ([]Alert, error) {
	if tolerance < 0 {
		return nil, ErrInvalidTolerance
	}
	entries, err := s.store.Movements(ctx, stock.MovementFilter{Type: stock.MovementEntree})
	if err != nil {
		return nil, fmt.Errorf("alerts: movements: %w", err)
	}
	found := make([]Alert, 0)
	for _, m := range entries {
		expected := m.Quantity
		received := m.Quantity
		diff := received - expected
		if diff < 0 {
			diff = -diff
		}
		if float64(diff) > tolerance*float64(expected) {
			found = append(found, s.newAlert(m.ProductID, TypeDeliveryNonConformity,
				fmt.Sprintf("Produit %s livraison non conforme : attendu=%d, reçu=%d", m.ProductID, expected, received)))
		}
	}
	return found, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
