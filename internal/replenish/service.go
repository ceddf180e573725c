// Package replenish derives restocking suggestions from thresholds and
// purchase proposals from the forecast engine output.
package replenish

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pharmsight/pharmsight/internal/forecast"
	"github.com/pharmsight/pharmsight/internal/stock"
)

// BasedOnForecast tags proposals derived from the consumption forecast.
const BasedOnForecast = "Prévision"

// forecastJustification is the fixed proposal rationale.
const forecastJustification = "Basé sur la prévision de consommation moyenne"

// Suggestion is a threshold-driven restock row. The suggested quantity
// is always positive because only below-minimum rows are kept.
type Suggestion struct {
	ProductID         string `json:"product_id"`
	CurrentStock      int    `json:"current_stock"`
	MinimumStock      int    `json:"minimum_stock"`
	SuggestedQuantity int    `json:"suggested_quantity"`
}

// Proposal is a forecast-driven purchase order draft.
type Proposal struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"product_id"`
	SuggestedQuantity int       `json:"suggested_quantity"`
	BasedOn           string    `json:"based_on"`
	Justification     string    `json:"justification"`
	ProposalDate      time.Time `json:"proposal_date"`
}

// Store lists the read capabilities the engine consumes.
type Store interface {
	StockLevels(ctx context.Context) ([]stock.StockLevel, error)
	Thresholds(ctx context.Context) ([]stock.StockThreshold, error)
}

// Forecaster is the forecast engine capability this engine consumes.
type Forecaster interface {
	ForecastConsumption(ctx context.Context, windowMonths int) ([]forecast.Forecast, error)
}

// Service computes replenishment output as stateless passes.
type Service struct {
	store      Store
	forecaster Forecaster
	now        func() time.Time
}

// NewService builds Service.
func NewService(store Store, forecaster Forecaster) *Service {
	return &Service{store: store, forecaster: forecaster, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the engine clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Suggestions inner-joins stock and threshold rows and keeps products
// strictly below their minimum stock, suggesting the difference.
func (s *Service) Suggestions(ctx context.Context) ([]Suggestion, error) {
	levels, err := s.store.StockLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("replenish: stock levels: %w", err)
	}
	thresholds, err := s.store.Thresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("replenish: thresholds: %w", err)
	}
	minimum := make(map[string]int, len(thresholds))
	for _, t := range thresholds {
		minimum[t.ProductID] = t.MinimumStock
	}
	suggestions := make([]Suggestion, 0)
	for _, l := range levels {
		min, ok := minimum[l.ProductID]
		if !ok || l.Quantity >= min {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			ProductID:         l.ProductID,
			CurrentStock:      l.Quantity,
			MinimumStock:      min,
			SuggestedQuantity: min - l.Quantity,
		})
	}
	return suggestions, nil
}

// PurchaseProposals turns every forecast entry with a positive suggested
// quantity into a dated purchase proposal.
func (s *Service) PurchaseProposals(ctx context.Context) ([]Proposal, error) {
	forecasts, err := s.forecaster.ForecastConsumption(ctx, forecast.DefaultWindowMonths)
	if err != nil {
		return nil, fmt.Errorf("replenish: forecast: %w", err)
	}
	proposals := make([]Proposal, 0, len(forecasts))
	for _, f := range forecasts {
		if f.SuggestedQuantity <= 0 {
			continue
		}
		proposals = append(proposals, Proposal{
			ID:                uuid.NewString(),
			ProductID:         f.ProductID,
			SuggestedQuantity: f.SuggestedQuantity,
			BasedOn:           BasedOnForecast,
			Justification:     forecastJustification,
			ProposalDate:      s.now(),
		})
	}
	return proposals, nil
}
