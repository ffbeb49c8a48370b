package model

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalogue item. Qty is derived from the movement ledger and
// is never written directly by the application.
type Product struct {
	ID        uuid.UUID           `json:"id" db:"id"`
	Name      string              `json:"name" db:"name"`
	SKU       *string             `json:"sku" db:"sku"`
	Category  *string             `json:"category" db:"category"`
	CostPrice decimal.NullDecimal `json:"costPrice" db:"cost_price"`
	SalePrice decimal.NullDecimal `json:"salePrice" db:"sale_price"`
	Qty       int                 `json:"qty" db:"qty"`
	ImageURL  *string             `json:"imageUrl" db:"image_url"`
	CreatedAt time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time           `json:"updatedAt" db:"updated_at"`
}

// ProductInput carries the writable, non-quantity product columns. It is
// the payload of create, edit and CSV upsert operations.
type ProductInput struct {
	Name      string              `json:"name"`
	SKU       *string             `json:"sku"`
	Category  *string             `json:"category"`
	CostPrice decimal.NullDecimal `json:"costPrice"`
	SalePrice decimal.NullDecimal `json:"salePrice"`
	ImageURL  *string             `json:"imageUrl"`
}

// CreateProductRequest is the payload for creating a product with an
// initial stock level.
type CreateProductRequest struct {
	ProductInput
	Qty QuantityText `json:"qty"`
}

// UpdateProductRequest is the payload for editing a product. ObservedQty is
// the quantity the editor saw when the edit session opened.
type UpdateProductRequest struct {
	ProductInput
	Qty         QuantityText `json:"qty"`
	ObservedQty *int         `json:"observedQty"`
}

// UpdateProductResponse reports the saved product and the ledger entry the
// edit produced, if any.
type UpdateProductResponse struct {
	Product  *Product  `json:"product"`
	Movement *Movement `json:"movement,omitempty"`
}

// ProductFilter narrows a catalogue listing.
type ProductFilter struct {
	Query         string
	ExactSKU      bool
	Category      string
	Uncategorized bool
	Limit         int
	Offset        int
}

// ProductPage is one page of a catalogue listing.
type ProductPage struct {
	Items   []Product `json:"items"`
	Page    int       `json:"page"`
	HasMore bool      `json:"hasMore"`
}

// QuantityText holds a user-entered quantity exactly as typed. It accepts a
// JSON string, number or null.
type QuantityText string

// UnmarshalJSON implements json.Unmarshaler.
func (q *QuantityText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*q = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = QuantityText(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*q = QuantityText(strconv.FormatInt(i, 10))
		return nil
	}
	*q = QuantityText(n.String())
	return nil
}
