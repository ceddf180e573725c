// Package reporting aggregates the record store into category, value,
// expiry, KPI and performance summaries. All operations are read-only.
package reporting

import (
	"errors"
	"time"
)

// CategoryStat is the per-category product count and summed quantity.
type CategoryStat struct {
	Category      string `json:"category"`
	ProductCount  int    `json:"nombre_de_produits"`
	TotalQuantity int    `json:"quantite_totale"`
}

// NearExpiryProduct reports a product inside the near-expiry window with
// its remaining shelf life as a fractional day count.
type NearExpiryProduct struct {
	ProductID      string    `json:"product_id"`
	Name           string    `json:"name"`
	ExpirationDate time.Time `json:"expiration_date"`
	DaysRemaining  float64   `json:"jours_restants"`
}

// CriticalProduct is a stock level strictly below its critical threshold.
type CriticalProduct struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	CriticalStock int    `json:"critical_stock"`
}

// KPIReport summarises all-time stockouts and exits.
type KPIReport struct {
	TotalRuptures int      `json:"total_ruptures"`
	TotalExits    int      `json:"total_exits"`
	TopProducts   []string `json:"top_products"`
}

// ProductPerformance is the all-time exit volume and stockout count of
// one product.
type ProductPerformance struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	TotalExits    int    `json:"total_exits"`
	TotalRuptures int    `json:"total_ruptures"`
}

// topProductLimit caps the KPI and performance rankings.
const topProductLimit = 5

// expiryWindowDays: a month counts as exactly 30 days, matching the
// forecast cutoff convention.
const expiryWindowDays = 30

// DefaultExpiryMonths is the near-expiry window used when callers pass none.
const DefaultExpiryMonths = 3

// ErrInvalidWindow rejects non-positive near-expiry windows.
var ErrInvalidWindow = errors.New("reporting: window months must be positive")
