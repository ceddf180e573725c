// Package forecast derives consumption rates and reorder quantities
// from the SORTIE history of the movement journal.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pharmsight/pharmsight/internal/stock"
)

// DefaultWindowMonths is the trailing window used when callers pass none.
const DefaultWindowMonths = 3

// windowDays: a month counts as exactly 30 days for cutoff computation.
const windowDays = 30

// ErrInvalidWindow rejects non-positive window lengths.
var ErrInvalidWindow = errors.New("forecast: window months must be positive")

// Store lists the read capabilities the engine consumes.
type Store interface {
	ConsumptionByProduct(ctx context.Context, since time.Time) ([]stock.ConsumptionTotal, error)
	StockLevelByProduct(ctx context.Context, productID string) (stock.StockLevel, error)
	Products(ctx context.Context) ([]stock.Product, error)
}

// Forecast reports the monthly consumption rate and the suggested
// reorder quantity for one product.
type Forecast struct {
	ProductID          string  `json:"product_id"`
	AverageConsumption float64 `json:"average_consumption"`
	SuggestedQuantity  int     `json:"suggested_quantity"`
}

// PreOrder reports the per-movement consumption average joined with the
// product category. The denominator differs from Forecast on purpose:
// PreOrder averages per movement, Forecast per window-month.
type PreOrder struct {
	ProductID          string  `json:"product_id"`
	AverageConsumption float64 `json:"average_consumption"`
	Category           string  `json:"category"`
}

// Service computes forecasts as stateless passes over the store.
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

// ForecastConsumption sums SORTIE quantities per product over the
// trailing window and derives a reorder suggestion. Products without
// SORTIE movements in the window are omitted. The monthly rate divides
// by the window length, not the movement count.
func (s *Service) ForecastConsumption(ctx context.Context, windowMonths int) ([]Forecast, error) {
	if windowMonths <= 0 {
		return nil, ErrInvalidWindow
	}
	cutoff := s.now().AddDate(0, 0, -windowDays*windowMonths)
	totals, err := s.store.ConsumptionByProduct(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("forecast: consumption totals: %w", err)
	}

	forecasts := make([]Forecast, 0, len(totals))
	for _, t := range totals {
		average := float64(t.TotalQuantity) / float64(windowMonths)
		current := 0
		level, err := s.store.StockLevelByProduct(ctx, t.ProductID)
		switch {
		case err == nil:
			current = level.Quantity
		case errors.Is(err, stock.ErrNotFound):
			// no stock row means quantity zero
		default:
			return nil, fmt.Errorf("forecast: stock level %s: %w", t.ProductID, err)
		}
		suggested := int(math.Round(average*2 - float64(current)))
		if suggested < 0 {
			suggested = 0
		}
		forecasts = append(forecasts, Forecast{
			ProductID:          t.ProductID,
			AverageConsumption: average,
			SuggestedQuantity:  suggested,
		})
	}
	return forecasts, nil
}

// PreOrderForecast reports the per-movement SORTIE average per product
// over the trailing window, joined with the product category. Products
// missing from the catalogue are dropped, matching the inner join of
// the reference aggregation.
func (s *Service) PreOrderForecast(ctx context.Context, windowMonths int) ([]PreOrder, error) {
	if windowMonths <= 0 {
		return nil, ErrInvalidWindow
	}
	cutoff := s.now().AddDate(0, 0, -windowDays*windowMonths)
	totals, err := s.store.ConsumptionByProduct(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("forecast: consumption totals: %w", err)
	}
	products, err := s.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("forecast: products: %w", err)
	}
	categories := make(map[string]string, len(products))
	for _, p := range products {
		categories[p.ID] = p.Category
	}

	preOrders := make([]PreOrder, 0, len(totals))
	for _, t := range totals {
		category, ok := categories[t.ProductID]
		if !ok {
			continue
		}
		preOrders = append(preOrders, PreOrder{
			ProductID:          t.ProductID,
			AverageConsumption: float64(t.TotalQuantity) / float64(t.MovementCount),
			Category:           category,
		})
	}
	return preOrders, nil
}
