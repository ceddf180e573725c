// Package memory provides an in-process record store used by tests and
// the local (store-less) run mode. It honours read-after-write for a
// single caller and keeps result ordering deterministic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pharmsight/pharmsight/internal/stock"
)

// Store keeps the four collections in maps and slices behind one mutex.
type Store struct {
	mu         sync.RWMutex
	products   map[string]stock.Product
	levels     map[string]stock.StockLevel
	thresholds map[string]stock.StockThreshold
	movements  []stock.Movement
}

// New returns an empty Store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.products = make(map[string]stock.Product)
	s.levels = make(map[string]stock.StockLevel)
	s.thresholds = make(map[string]stock.StockThreshold)
	s.movements = nil
}

// Products returns all products ordered by id.
func (s *Store) Products(ctx context.Context) ([]stock.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stock.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// StockLevels returns all stock rows ordered by product id.
func (s *Store) StockLevels(ctx context.Context) ([]stock.StockLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stock.StockLevel, 0, len(s.levels))
	for _, l := range s.levels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// StockLevelByProduct returns the stock row or stock.ErrNotFound.
func (s *Store) StockLevelByProduct(ctx context.Context, productID string) (stock.StockLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	level, ok := s.levels[productID]
	if !ok {
		return stock.StockLevel{}, stock.ErrNotFound
	}
	return level, nil
}

// Thresholds returns all threshold rows ordered by product id.
func (s *Store) Thresholds(ctx context.Context) ([]stock.StockThreshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stock.StockThreshold, 0, len(s.thresholds))
	for _, t := range s.thresholds {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// Movements returns journal entries matching the filter in insertion order.
func (s *Store) Movements(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []stock.Movement
	for _, m := range s.movements {
		if filter.ProductID != "" && m.ProductID != filter.ProductID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if !filter.Since.IsZero() && m.Date.Before(filter.Since) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ConsumptionByProduct groups SORTIE movements since the cutoff.
func (s *Store) ConsumptionByProduct(ctx context.Context, since time.Time) ([]stock.ConsumptionTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := make(map[string]*stock.ConsumptionTotal)
	for _, m := range s.movements {
		if m.Type != stock.MovementSortie {
			continue
		}
		if !since.IsZero() && m.Date.Before(since) {
			continue
		}
		t, ok := totals[m.ProductID]
		if !ok {
			t = &stock.ConsumptionTotal{ProductID: m.ProductID}
			totals[m.ProductID] = t
		}
		t.TotalQuantity += m.Quantity
		t.MovementCount++
	}
	out := make([]stock.ConsumptionTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// InsertProduct adds a product, rejecting duplicate ids.
func (s *Store) InsertProduct(ctx context.Context, p stock.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; ok {
		return stock.ErrDuplicate
	}
	s.products[p.ID] = p
	return nil
}

// UpsertThreshold stores the threshold row keyed by product.
func (s *Store) UpsertThreshold(ctx context.Context, t stock.StockThreshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds[t.ProductID] = t
	return nil
}

// UpsertStockLevel stores the stock row keyed by product.
func (s *Store) UpsertStockLevel(ctx context.Context, level stock.StockLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[level.ProductID] = level
	return nil
}

// AppendMovement appends to the journal.
func (s *Store) AppendMovement(ctx context.Context, m stock.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, m)
	return nil
}

// Reset clears all collections.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}
