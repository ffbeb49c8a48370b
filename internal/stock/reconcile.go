// Package stock turns edited stock levels into ledger movements and derives
// quantities and statistics back from the ledger.
package stock

import (
	"math"
	"strconv"
	"strings"

	"stockroom/internal/model"

	"github.com/google/uuid"
)

// InitialStockNote is attached to the movement that bootstraps a new
// product's quantity.
const InitialStockNote = "initial stock"

// ParseQuantity sanitises a typed quantity. Every non-digit character is
// dropped, so the result is never negative; an empty result is 0, not
// "unchanged".
func ParseQuantity(raw string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if digits == "" {
		return 0
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		// Only overflow can fail here.
		return math.MaxInt
	}
	return n
}

// Reconcile converts an edit from oldQty to newQty into a ledger entry.
// It returns a nil movement when the quantity did not change.
func Reconcile(productID uuid.UUID, oldQty, newQty int, actor uuid.UUID) (*model.Movement, error) {
	if actor == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}
	if newQty < 0 {
		return nil, model.ErrNegativeQuantity
	}

	delta := newQty - oldQty
	if delta == 0 {
		return nil, nil
	}

	return &model.Movement{
		ID:        uuid.New(),
		ProductID: productID,
		Change:    delta,
		Reason:    model.ReasonAdjust,
		CreatedBy: actor,
	}, nil
}

// InitialMovement is the ADJUST entry that sets a new product's starting
// quantity. A zero quantity needs no entry.
func InitialMovement(productID uuid.UUID, qty int, actor uuid.UUID) (*model.Movement, error) {
	m, err := Reconcile(productID, 0, qty, actor)
	if err != nil || m == nil {
		return m, err
	}

	note := InitialStockNote
	m.Note = &note
	return m, nil
}

// NewAdjustment validates a quick stock change.
func NewAdjustment(productID uuid.UUID, req model.AdjustRequest, actor uuid.UUID) (*model.Movement, error) {
	if actor == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}
	if !req.Reason.Valid() {
		return nil, model.ErrInvalidReason
	}
	if req.Change == 0 {
		return nil, model.ErrZeroChange
	}

	var note *string
	if req.Note != nil {
		if trimmed := strings.TrimSpace(*req.Note); trimmed != "" {
			note = &trimmed
		}
	}

	return &model.Movement{
		ID:        uuid.New(),
		ProductID: productID,
		Change:    req.Change,
		Reason:    req.Reason,
		CreatedBy: actor,
		Note:      note,
	}, nil
}

// Apply returns qty after the given movements. Addition commutes, so the
// order in which concurrent movements land does not matter.
func Apply(qty int, movements ...model.Movement) int {
	for _, m := range movements {
		qty += m.Change
	}
	return qty
}
