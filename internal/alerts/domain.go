// Package alerts evaluates the record store against stockout, expiry,
// bookkeeping and delivery-conformity predicates.
package alerts

import (
	"errors"
	"time"
)

// Type tags the condition an alert reports.
type Type string

const (
	// TypeCriticalThreshold flags stock at or under a critical floor.
	TypeCriticalThreshold Type = "SEUIL_CRITIQUE"
	// TypeExpiry flags products close to their expiration date.
	TypeExpiry Type = "PEREMPTION"
	// TypeInventoryGap flags drift between live and theoretical stock.
	TypeInventoryGap Type = "INVENTAIRE_ECART"
	// TypeDeliveryNonConformity flags received quantities outside tolerance.
	TypeDeliveryNonConformity Type = "NON_CONFORMITE_LIVRAISON"
)

// Alert is one emitted finding. Meta carries check-specific figures,
// such as the stored and theoretical quantities of an inventory gap.
type Alert struct {
	ID        string         `json:"id"`
	ProductID string         `json:"product_id"`
	Type      Type           `json:"alert_type"`
	Message   string         `json:"message"`
	Date      time.Time      `json:"date"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Defaults for the caller-supplied check parameters.
const (
	DefaultCriticalLevel     = 10
	DefaultExpiryDays        = 30
	DefaultDeliveryTolerance = 0.05
)

// auditTolerance is the fixed allowed drift between live and
// theoretical quantity before an inventory gap is reported.
const auditTolerance = 5

// ErrInvalidLevel rejects negative critical levels.
var ErrInvalidLevel = errors.New("alerts: critical level must not be negative")

// ErrInvalidDays rejects negative expiry windows.
var ErrInvalidDays = errors.New("alerts: days limit must not be negative")

// ErrInvalidTolerance rejects negative delivery tolerances.
var ErrInvalidTolerance = errors.New("alerts: tolerance must not be negative")
