// Package stock defines the pharmacy record store: the four entity
// collections every engine reads, and the capability ports used to
// query and mutate them.
package stock

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementEntree represents an inbound delivery.
	MovementEntree MovementType = "ENTREE"
	// MovementSortie represents an outbound dispensation.
	MovementSortie MovementType = "SORTIE"
	// MovementTransfert moves stock between locations without changing totals.
	MovementTransfert MovementType = "TRANSFERT"
	// MovementRetour represents a customer or ward return.
	MovementRetour MovementType = "RETOUR"
	// MovementRupture records a stockout event.
	MovementRupture MovementType = "RUPTURE"
)

// RegulatoryClass classifies a product under pharmacy regulation.
type RegulatoryClass string

const (
	ClassOrdinaire   RegulatoryClass = "Ordinaire"
	ClassStupefiant  RegulatoryClass = "Stupéfiant"
	ClassPsychotrope RegulatoryClass = "Psychotrope"
)

// Product is the static reference record for a pharmacy article.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Dosage          string          `json:"dosage,omitempty"`
	BatchNumber     string          `json:"batch_number,omitempty"`
	Supplier        string          `json:"supplier,omitempty"`
	ExpirationDate  time.Time       `json:"expiration_date"`
	UnitPrice       float64         `json:"unit_price"`
	RegulatoryClass RegulatoryClass `json:"regulatory_class"`
}

// StockLevel is the maintained live quantity per product. At most one
// row exists per product; quantity is clamped at zero by callers.
type StockLevel struct {
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	LastUpdate time.Time `json:"last_update"`
	Location   string    `json:"location"`
}

// StockThreshold carries the replenishment trigger and the critical
// floor per product. Critical is expected below minimum; the store does
// not enforce the ordering.
type StockThreshold struct {
	ProductID     string `json:"product_id"`
	MinimumStock  int    `json:"minimum_stock"`
	CriticalStock int    `json:"critical_stock"`
}

// Movement is one append-only entry of the stock journal.
type Movement struct {
	Type        MovementType `json:"movement_type"`
	ProductID   string       `json:"product_id"`
	Quantity    int          `json:"quantity"`
	Date        time.Time    `json:"date"`
	Reason      string       `json:"reason,omitempty"`
	Destination string       `json:"destination,omitempty"`
}

// Delta returns the signed effect of the movement on stock quantity:
// positive for ENTREE/RETOUR, negative for SORTIE/RUPTURE, zero for
// TRANSFERT which only relocates stock.
func (m Movement) Delta() int {
	switch m.Type {
	case MovementEntree, MovementRetour:
		return m.Quantity
	case MovementSortie, MovementRupture:
		return -m.Quantity
	default:
		return 0
	}
}

// MovementFilter narrows journal reads. Zero values match everything.
type MovementFilter struct {
	ProductID string
	Type      MovementType
	Since     time.Time
}

// ConsumptionTotal is the grouped SORTIE aggregate per product.
type ConsumptionTotal struct {
	ProductID     string
	TotalQuantity int
	MovementCount int
}

// ErrNotFound indicates a missing record for an exact-match lookup.
var ErrNotFound = errors.New("stock: record not found")

// ErrDuplicate indicates a unique key violation on insert.
var ErrDuplicate = errors.New("stock: duplicate record")
