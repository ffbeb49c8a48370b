package model

import (
	"time"

	"github.com/google/uuid"
)

// Reason tags a stock movement.
type Reason string

const (
	ReasonRestock Reason = "RESTOCK"
	ReasonSale    Reason = "SALE"
	ReasonAdjust  Reason = "ADJUST"
)

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	switch r {
	case ReasonRestock, ReasonSale, ReasonAdjust:
		return true
	}
	return false
}

// Movement is an append-only signed quantity change.
type Movement struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Change    int       `json:"change" db:"change"`
	Reason    Reason    `json:"reason" db:"reason"`
	CreatedBy uuid.UUID `json:"createdBy" db:"created_by"`
	Note      *string   `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MovementView is a movement joined with the product it applies to.
type MovementView struct {
	Movement
	ProductName *string `json:"productName"`
	ProductSKU  *string `json:"productSku"`
}

// AdjustRequest is a quick stock change.
type AdjustRequest struct {
	Change int     `json:"change"`
	Reason Reason  `json:"reason"`
	Note   *string `json:"note,omitempty"`
}

// AdjustResponse returns the recorded movement and the quantity the
// product is expected to hold after it.
type AdjustResponse struct {
	Movement *Movement `json:"movement"`
	Qty      int       `json:"qty"`
}

// MovementStats summarises a window of movements.
type MovementStats struct {
	Total      int    `json:"total"`
	Restock    int    `json:"restock"`
	Sale       int    `json:"sale"`
	Adjust     int    `json:"adjust"`
	Net        int    `json:"net"`
	TopProduct string `json:"topProduct"`
	TopVolume  int    `json:"topVolume"`
}

// MovementHistory is the response for a history window.
type MovementHistory struct {
	From  time.Time      `json:"from"`
	To    time.Time      `json:"to"`
	Rows  []MovementView `json:"rows"`
	Stats MovementStats  `json:"stats"`
}

// LedgerDrift is a product whose stored quantity differs from the sum of
// its movements.
type LedgerDrift struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	SKU       *string   `json:"sku"`
	Qty       int       `json:"qty"`
	LedgerSum int       `json:"ledgerSum"`
}
