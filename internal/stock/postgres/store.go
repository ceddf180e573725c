// Package postgres implements the record store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmsight/pharmsight/internal/platform/db"
	"github.com/pharmsight/pharmsight/internal/stock"
)

// Store persists the four collections in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store on the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const uniqueViolation = "23505"

func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return stock.ErrDuplicate
	}
	return err
}

// Products lists all products ordered by id.
func (s *Store) Products(ctx context.Context) ([]stock.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, category, dosage, batch_number, supplier,
		       expiration_date, unit_price, regulatory_class
		FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("stock/postgres: list products: %w", err)
	}
	defer rows.Close()
	var products []stock.Product
	for rows.Next() {
		var p stock.Product
		var dosage, batch, supplier pgtype.Text
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &dosage, &batch, &supplier,
			&p.ExpirationDate, &p.UnitPrice, &p.RegulatoryClass); err != nil {
			return nil, err
		}
		p.Dosage = dosage.String
		p.BatchNumber = batch.String
		p.Supplier = supplier.String
		products = append(products, p)
	}
	return products, rows.Err()
}

// StockLevels lists all stock rows ordered by product id.
func (s *Store) StockLevels(ctx context.Context) ([]stock.StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id, quantity, last_update, location
		FROM stock_levels ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("stock/postgres: list stock levels: %w", err)
	}
	defer rows.Close()
	var levels []stock.StockLevel
	for rows.Next() {
		var l stock.StockLevel
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.LastUpdate, &l.Location); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// StockLevelByProduct fetches one stock row or stock.ErrNotFound.
func (s *Store) StockLevelByProduct(ctx context.Context, productID string) (stock.StockLevel, error) {
	var l stock.StockLevel
	err := s.pool.QueryRow(ctx, `
		SELECT product_id, quantity, last_update, location
		FROM stock_levels WHERE product_id = $1`, productID).
		Scan(&l.ProductID, &l.Quantity, &l.LastUpdate, &l.Location)
	if errors.Is(err, pgx.ErrNoRows) {
		return stock.StockLevel{}, stock.ErrNotFound
	}
	if err != nil {
		return stock.StockLevel{}, fmt.Errorf("stock/postgres: get stock level: %w", err)
	}
	return l, nil
}

// Thresholds lists all threshold rows ordered by product id.
func (s *Store) Thresholds(ctx context.Context) ([]stock.StockThreshold, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id, minimum_stock, critical_stock
		FROM stock_thresholds ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("stock/postgres: list thresholds: %w", err)
	}
	defer rows.Close()
	var thresholds []stock.StockThreshold
	for rows.Next() {
		var t stock.StockThreshold
		if err := rows.Scan(&t.ProductID, &t.MinimumStock, &t.CriticalStock); err != nil {
			return nil, err
		}
		thresholds = append(thresholds, t)
	}
	return thresholds, rows.Err()
}

// Movements lists journal entries matching the filter, oldest first.
func (s *Store) Movements(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	query := `
		SELECT movement_type, product_id, quantity, date, reason, destination
		FROM movements
		WHERE ($1 = '' OR product_id = $1)
		  AND ($2 = '' OR movement_type = $2)
		  AND ($3::timestamptz IS NULL OR date >= $3)
		ORDER BY date, id`
	since := pgtype.Timestamptz{Time: filter.Since, Valid: !filter.Since.IsZero()}
	rows, err := s.pool.Query(ctx, query, filter.ProductID, string(filter.Type), since)
	if err != nil {
		return nil, fmt.Errorf("stock/postgres: list movements: %w", err)
	}
	defer rows.Close()
	var movements []stock.Movement
	for rows.Next() {
		var m stock.Movement
		var reason, destination pgtype.Text
		if err := rows.Scan(&m.Type, &m.ProductID, &m.Quantity, &m.Date, &reason, &destination); err != nil {
			return nil, err
		}
		m.Reason = reason.String
		m.Destination = destination.String
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ConsumptionByProduct pushes the SORTIE grouping down to SQL.
func (s *Store) ConsumptionByProduct(ctx context.Context, since time.Time) ([]stock.ConsumptionTotal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id, COALESCE(SUM(quantity), 0), COUNT(*)
		FROM movements
		WHERE movement_type = 'SORTIE'
		  AND ($1::timestamptz IS NULL OR date >= $1)
		GROUP BY product_id
		ORDER BY product_id`,
		pgtype.Timestamptz{Time: since, Valid: !since.IsZero()})
	if err != nil {
		return nil, fmt.Errorf("stock/postgres: consumption by product: %w", err)
	}
	defer rows.Close()
	var totals []stock.ConsumptionTotal
	for rows.Next() {
		var t stock.ConsumptionTotal
		if err := rows.Scan(&t.ProductID, &t.TotalQuantity, &t.MovementCount); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// InsertProduct adds a product, mapping unique violations to ErrDuplicate.
func (s *Store) InsertProduct(ctx context.Context, p stock.Product) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (id, name, category, dosage, batch_number, supplier,
		                      expiration_date, unit_price, regulatory_class)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.Category,
		pgtype.Text{String: p.Dosage, Valid: p.Dosage != ""},
		pgtype.Text{String: p.BatchNumber, Valid: p.BatchNumber != ""},
		pgtype.Text{String: p.Supplier, Valid: p.Supplier != ""},
		p.ExpirationDate, p.UnitPrice, string(p.RegulatoryClass))
	if err != nil {
		return fmt.Errorf("stock/postgres: insert product: %w", mapInsertErr(err))
	}
	return nil
}

// UpsertThreshold writes the threshold row keyed by product.
func (s *Store) UpsertThreshold(ctx context.Context, t stock.StockThreshold) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO stock_thresholds (product_id, minimum_stock, critical_stock)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET minimum_stock = EXCLUDED.minimum_stock,
		              critical_stock = EXCLUDED.critical_stock`,
		t.ProductID, t.MinimumStock, t.CriticalStock)
	if err != nil {
		return fmt.Errorf("stock/postgres: upsert threshold: %w", err)
	}
	return nil
}

// UpsertStockLevel writes the stock row keyed by product.
func (s *Store) UpsertStockLevel(ctx context.Context, level stock.StockLevel) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO stock_levels (product_id, quantity, last_update, location)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              last_update = EXCLUDED.last_update,
		              location = EXCLUDED.location`,
		level.ProductID, level.Quantity,
		pgtype.Timestamptz{Time: level.LastUpdate, Valid: true},
		level.Location)
	if err != nil {
		return fmt.Errorf("stock/postgres: upsert stock level: %w", err)
	}
	return nil
}

// AppendMovement appends one journal row.
func (s *Store) AppendMovement(ctx context.Context, m stock.Movement) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO movements (movement_type, product_id, quantity, date, reason, destination)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(m.Type), m.ProductID, m.Quantity,
		pgtype.Timestamptz{Time: m.Date, Valid: true},
		pgtype.Text{String: m.Reason, Valid: m.Reason != ""},
		pgtype.Text{String: m.Destination, Valid: m.Destination != ""})
	if err != nil {
		return fmt.Errorf("stock/postgres: append movement: %w", err)
	}
	return nil
}

// Reset truncates the four collections in one transaction. Callers
// must still guarantee exclusive access while reseeding afterwards.
func (s *Store) Reset(ctx context.Context) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, table := range []string{"movements", "stock_levels", "stock_thresholds", "products"} {
			if _, err := tx.Exec(ctx, "TRUNCATE "+table); err != nil {
				return fmt.Errorf("stock/postgres: reset %s: %w", table, err)
			}
		}
		return nil
	})
}
