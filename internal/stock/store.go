package stock

import (
	"context"
	"time"
)

// Reader exposes the read capabilities engines depend on. Implementations
// must return deterministic ordering (product id ascending, movements by
// date then insertion) so repeated reads without writes stay identical.
type Reader interface {
	Products(ctx context.Context) ([]Product, error)
	StockLevels(ctx context.Context) ([]StockLevel, error)
	// StockLevelByProduct returns ErrNotFound when the product has no
	// stock row; callers treat that as quantity zero.
	StockLevelByProduct(ctx context.Context, productID string) (StockLevel, error)
	Thresholds(ctx context.Context) ([]StockThreshold, error)
	Movements(ctx context.Context, filter MovementFilter) ([]Movement, error)
	// ConsumptionByProduct groups SORTIE movements dated at or after
	// since, returning total quantity and movement count per product.
	ConsumptionByProduct(ctx context.Context, since time.Time) ([]ConsumptionTotal, error)
}

// Writer exposes the mutation capabilities used by provisioning and the
// simulator. Movements are append-only; stock levels upsert by product.
type Writer interface {
	InsertProduct(ctx context.Context, p Product) error
	UpsertThreshold(ctx context.Context, t StockThreshold) error
	UpsertStockLevel(ctx context.Context, level StockLevel) error
	AppendMovement(ctx context.Context, m Movement) error
	// Reset clears all four collections. It is not transactional across
	// them and must only run as an exclusive maintenance operation.
	Reset(ctx context.Context) error
}

// Store combines the full capability surface.
type Store interface {
	Reader
	Writer
}
