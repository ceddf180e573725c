package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pharmsight/pharmsight/internal/stock"
)

// Store lists the read capabilities the engine consumes.
type Store interface {
	Products(ctx context.Context) ([]stock.Product, error)
	StockLevels(ctx context.Context) ([]stock.StockLevel, error)
	Thresholds(ctx context.Context) ([]stock.StockThreshold, error)
	Movements(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error)
	ConsumptionByProduct(ctx context.Context, since time.Time) ([]stock.ConsumptionTotal, error)
}

// Service runs the report aggregations. Reports that depend only on the
// store contents go through the versioned cache; clock-dependent ones
// (near-expiry) always read fresh.
type Service struct {
	store Store
	cache *Cache
	now   func() time.Time
}

// NewService wires a Store with a Cache helper. A nil cache disables
// caching without changing behaviour.
func NewService(store Store, cache *Cache) *Service {
	return &Service{store: store, cache: cache, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the engine clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

func (s *Service) stockByProduct(ctx context.Context) (map[string]stock.StockLevel, error) {
	levels, err := s.store.StockLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("reporting: stock levels: %w", err)
	}
	byProduct := make(map[string]stock.StockLevel, len(levels))
	for _, l := range levels {
		byProduct[l.ProductID] = l
	}
	return byProduct, nil
}

// TotalStockValue sums unit_price times current quantity over every
// product holding a stock row. No stock means 0.0.
func (s *Service) TotalStockValue(ctx context.Context) (float64, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		products, err := s.store.Products(ctx)
		if err != nil {
			return 0.0, fmt.Errorf("reporting: products: %w", err)
		}
		levels, err := s.stockByProduct(ctx)
		if err != nil {
			return 0.0, err
		}
		total := 0.0
		for _, p := range products {
			if level, ok := levels[p.ID]; ok {
				total += p.UnitPrice * float64(level.Quantity)
			}
		}
		return total, nil
	}

	var total float64
	if err := s.cached(ctx, keyStockValue(), &total, loader); err != nil {
		return 0, err
	}
	return total, nil
}

// CategoryStats groups products holding stock by category and reports
// product count and summed quantity, sorted by quantity descending.
// Equal quantities order by category name; the reference left that
// tie-break unspecified.
func (s *Service) CategoryStats(ctx context.Context) ([]CategoryStat, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		products, err := s.store.Products(ctx)
		if err != nil {
			return nil, fmt.Errorf("reporting: products: %w", err)
		}
		levels, err := s.stockByProduct(ctx)
		if err != nil {
			return nil, err
		}
		byCategory := make(map[string]*CategoryStat)
		for _, p := range products {
			level, ok := levels[p.ID]
			if !ok {
				continue
			}
			stat, ok := byCategory[p.Category]
			if !ok {
				stat = &CategoryStat{Category: p.Category}
				byCategory[p.Category] = stat
			}
			stat.ProductCount++
			stat.TotalQuantity += level.Quantity
		}
		stats := make([]CategoryStat, 0, len(byCategory))
		for _, stat := range byCategory {
			stats = append(stats, *stat)
		}
		sort.Slice(stats, func(i, j int) bool {
			if stats[i].TotalQuantity != stats[j].TotalQuantity {
				return stats[i].TotalQuantity > stats[j].TotalQuantity
			}
			return stats[i].Category < stats[j].Category
		})
		return stats, nil
	}

	var stats []CategoryStat
	if err := s.cached(ctx, keyCategoryStats(), &stats, loader); err != nil {
		return nil, err
	}
	if stats == nil {
		stats = make([]CategoryStat, 0)
	}
	return stats, nil
}

// NearExpiry lists products expiring within the window, remaining days
// as a fractional value. The comparison against the window edge is
// inclusive.
func (s *Service) NearExpiry(ctx context.Context, windowMonths int) ([]NearExpiryProduct, error) {
	if windowMonths <= 0 {
		return nil, ErrInvalidWindow
	}
	products, err := s.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("reporting: products: %w", err)
	}
	now := s.now()
	limit := now.AddDate(0, 0, expiryWindowDays*windowMonths)
	near := make([]NearExpiryProduct, 0)
	for _, p := range products {
		if p.ExpirationDate.After(limit) {
			continue
		}
		near = append(near, NearExpiryProduct{
			ProductID:      p.ID,
			Name:           p.Name,
			ExpirationDate: p.ExpirationDate,
			DaysRemaining:  float64(p.ExpirationDate.Sub(now).Milliseconds()) / 86_400_000,
		})
	}
	return near, nil
}

// BelowCriticalThreshold inner-joins product, stock and threshold and
// keeps rows where the quantity is strictly below the critical stock.
func (s *Service) BelowCriticalThreshold(ctx context.Context) ([]CriticalProduct, error) {
	products, err := s.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("reporting: products: %w", err)
	}
	levels, err := s.stockByProduct(ctx)
	if err != nil {
		return nil, err
	}
	thresholds, err := s.store.Thresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("reporting: thresholds: %w", err)
	}
	critical := make(map[string]int, len(thresholds))
	for _, t := range thresholds {
		critical[t.ProductID] = t.CriticalStock
	}
	rows := make([]CriticalProduct, 0)
	for _, p := range products {
		level, ok := levels[p.ID]
		if !ok {
			continue
		}
		limit, ok := critical[p.ID]
		if !ok || level.Quantity >= limit {
			continue
		}
		rows = append(rows, CriticalProduct{
			ProductID:     p.ID,
			Name:          p.Name,
			Quantity:      level.Quantity,
			CriticalStock: limit,
		})
	}
	return rows, nil
}

// KPIReport counts all-time RUPTURE movements, sums all-time SORTIE
// quantities and ranks the top five products by exit volume. Ties rank
// by product id; the reference left the tie-break unspecified.
func (s *Service) KPIReport(ctx context.Context) (KPIReport, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		ruptures, err := s.store.Movements(ctx, stock.MovementFilter{Type: stock.MovementRupture})
		if err != nil {
			return KPIReport{}, fmt.Errorf("reporting: ruptures: %w", err)
		}
		exits, err := s.store.ConsumptionByProduct(ctx, time.Time{})
		if err != nil {
			return KPIReport{}, fmt.Errorf("reporting: exits: %w", err)
		}
		sort.Slice(exits, func(i, j int) bool {
			if exits[i].TotalQuantity != exits[j].TotalQuantity {
				return exits[i].TotalQuantity > exits[j].TotalQuantity
			}
			return exits[i].ProductID < exits[j].ProductID
		})
		report := KPIReport{TotalRuptures: len(ruptures), TopProducts: make([]string, 0, topProductLimit)}
		for i, e := range exits {
			report.TotalExits += e.TotalQuantity
			if i < topProductLimit {
				report.TopProducts = append(report.TopProducts, e.ProductID)
			}
		}
		return report, nil
	}

	var report KPIReport
	if err := s.cached(ctx, keyKPI(), &report, loader); err != nil {
		return KPIReport{}, err
	}
	if report.TopProducts == nil {
		report.TopProducts = make([]string, 0)
	}
	return report, nil
}

// PerformanceReport joins the all-time exit volume and stockout count
// per product with the catalogue, ranked by exits descending, top five.
func (s *Service) PerformanceReport(ctx context.Context) ([]ProductPerformance, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		exits, err := s.store.ConsumptionByProduct(ctx, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("reporting: exits: %w", err)
		}
		ruptures, err := s.store.Movements(ctx, stock.MovementFilter{Type: stock.MovementRupture})
		if err != nil {
			return nil, fmt.Errorf("reporting: ruptures: %w", err)
		}
		products, err := s.store.Products(ctx)
		if err != nil {
			return nil, fmt.Errorf("reporting: products: %w", err)
		}

		totals := make(map[string]*ProductPerformance)
		for _, e := range exits {
			totals[e.ProductID] = &ProductPerformance{ProductID: e.ProductID, TotalExits: e.TotalQuantity}
		}
		for _, m := range ruptures {
			row, ok := totals[m.ProductID]
			if !ok {
				row = &ProductPerformance{ProductID: m.ProductID}
				totals[m.ProductID] = row
			}
			row.TotalRuptures++
		}

		rows := make([]ProductPerformance, 0, len(totals))
		for _, p := range products {
			row, ok := totals[p.ID]
			if !ok {
				continue
			}
			row.Name = p.Name
			row.Category = p.Category
			rows = append(rows, *row)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].TotalExits != rows[j].TotalExits {
				return rows[i].TotalExits > rows[j].TotalExits
			}
			return rows[i].ProductID < rows[j].ProductID
		})
		if len(rows) > topProductLimit {
			rows = rows[:topProductLimit]
		}
		return rows, nil
	}

	var rows []ProductPerformance
	if err := s.cached(ctx, keyPerformance(), &rows, loader); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]ProductPerformance, 0)
	}
	return rows, nil
}

func (s *Service) cached(ctx context.Context, keyParts []string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, keyParts...)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}
