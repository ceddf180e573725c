// Package simulation populates the record store with deterministic-ish
// demo data and maintains live stock levels as movements are applied.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pharmsight/pharmsight/internal/stock"
)

// Run defaults match the reference data generator.
const (
	DefaultMonths        = 6
	DefaultProductsCount = 10

	movementsPerMonth = 5
	defaultLocation   = "Magasin principal"
)

var categories = []string{
	"Antibiotique",
	"Antalgique",
	"Antipaludéen",
	"Antifongique",
	"Antiviral",
	"Antihypertenseur",
}

var movementKinds = []stock.MovementType{
	stock.MovementEntree,
	stock.MovementSortie,
	stock.MovementRupture,
}

// ErrInvalidRun rejects non-positive run parameters.
var ErrInvalidRun = errors.New("simulation: months and products count must be positive")

// Bumper invalidates report caches after the store contents change.
type Bumper interface {
	Bump(ctx context.Context) error
}

// Service drives the simulator against the record store.
type Service struct {
	store  stock.Store
	bumper Bumper
	logger *slog.Logger
	rng    *rand.Rand
	now    func() time.Time
}

// NewService builds Service with a time-seeded generator.
func NewService(store stock.Store, bumper Bumper, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		bumper: bumper,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithRand overrides the random source for reproducible runs.
func (s *Service) WithRand(rng *rand.Rand) {
	if rng != nil {
		s.rng = rng
	}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// UpdateStock applies one movement to the live stock level. ENTREE and
// RETOUR add, SORTIE and RUPTURE subtract, and the result is floored at
// zero. The floor is deliberate: the unfloored truth stays derivable
// from the journal and the audit reports the difference.
func (s *Service) UpdateStock(ctx context.Context, m stock.Movement) error {
	quantity := 0
	location := defaultLocation
	level, err := s.store.StockLevelByProduct(ctx, m.ProductID)
	switch {
	case err == nil:
		quantity = level.Quantity
		location = level.Location
	case errors.Is(err, stock.ErrNotFound):
	default:
		return fmt.Errorf("simulation: stock level %s: %w", m.ProductID, err)
	}

	quantity += m.Delta()
	if quantity < 0 {
		quantity = 0
	}
	return s.store.UpsertStockLevel(ctx, stock.StockLevel{
		ProductID:  m.ProductID,
		Quantity:   quantity,
		LastUpdate: s.now(),
		Location:   location,
	})
}

// RecordMovement appends a journal entry and applies it to live stock.
func (s *Service) RecordMovement(ctx context.Context, m stock.Movement) error {
	if err := s.store.AppendMovement(ctx, m); err != nil {
		return err
	}
	return s.UpdateStock(ctx, m)
}

// Reset clears all four collections. Exclusive maintenance only.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	return s.bump(ctx)
}

// Run resets the store, seeds products with zero stock and thresholds,
// then replays months of random movements through UpdateStock so every
// live level respects the zero floor.
func (s *Service) Run(ctx context.Context, months, productsCount int) error {
	if months <= 0 || productsCount <= 0 {
		return ErrInvalidRun
	}
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("simulation: reset: %w", err)
	}

	now := s.now()
	start := now.AddDate(0, 0, -months*30)
	productIDs := make([]string, 0, productsCount)

	for i := 1; i <= productsCount; i++ {
		p := stock.Product{
			ID:              fmt.Sprintf("P%03d", i),
			Name:            fmt.Sprintf("Produit-%d", i),
			Category:        categories[s.rng.Intn(len(categories))],
			BatchNumber:     fmt.Sprintf("BATCH%03d", i),
			ExpirationDate:  now.AddDate(0, 0, 60+s.rng.Intn(121)),
			UnitPrice:       500 + s.rng.Float64()*4500,
			RegulatoryClass: stock.ClassOrdinaire,
		}
		if err := s.store.InsertProduct(ctx, p); err != nil {
			return fmt.Errorf("simulation: insert product %s: %w", p.ID, err)
		}
		if err := s.store.UpsertStockLevel(ctx, stock.StockLevel{
			ProductID:  p.ID,
			Quantity:   0,
			LastUpdate: now,
			Location:   defaultLocation,
		}); err != nil {
			return fmt.Errorf("simulation: init stock %s: %w", p.ID, err)
		}
		if err := s.store.UpsertThreshold(ctx, stock.StockThreshold{
			ProductID:     p.ID,
			MinimumStock:  10 + s.rng.Intn(20),
			CriticalStock: 3 + s.rng.Intn(7),
		}); err != nil {
			return fmt.Errorf("simulation: init threshold %s: %w", p.ID, err)
		}
		productIDs = append(productIDs, p.ID)
	}

	for _, productID := range productIDs {
		for month := 0; month < months; month++ {
			refDate := start.AddDate(0, 0, month*30)
			for i := 0; i < movementsPerMonth; i++ {
				m := stock.Movement{
					Type:      movementKinds[s.rng.Intn(len(movementKinds))],
					ProductID: productID,
					Quantity:  1 + s.rng.Intn(10),
					Date:      refDate.AddDate(0, 0, s.rng.Intn(30)),
					Reason:    "simulation",
				}
				if err := s.RecordMovement(ctx, m); err != nil {
					return fmt.Errorf("simulation: movement %s: %w", productID, err)
				}
			}
		}
	}

	if s.logger != nil {
		s.logger.Info("simulation complete",
			slog.Int("months", months),
			slog.Int("products", productsCount),
		)
	}
	return s.bump(ctx)
}

func (s *Service) bump(ctx context.Context) error {
	if s.bumper == nil {
		return nil
	}
	return s.bumper.Bump(ctx)
}
