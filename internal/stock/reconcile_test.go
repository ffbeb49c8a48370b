package stock

import (
	"math/rand"
	"testing"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int
	}{
		{"Plain digits", "42", 42},
		{"Empty string is zero", "", 0},
		{"Whitespace only is zero", "   ", 0},
		{"Thousands separator stripped", "1,250", 1250},
		{"Units stripped", "12 pcs", 12},
		{"Minus sign stripped", "-5", 5},
		{"Decimal point stripped", "3.5", 35},
		{"Letters only is zero", "abc", 0},
		{"Leading zeros", "007", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseQuantity(tt.raw))
		})
	}
}

func TestReconcile(t *testing.T) {
	productID := uuid.New()
	actor := uuid.New()

	tests := []struct {
		name        string
		oldQty      int
		newQty      int
		expectNil   bool
		expectDelta int
	}{
		{"Increase", 10, 15, false, 5},
		{"Decrease", 10, 3, false, -7},
		{"To zero", 8, 0, false, -8},
		{"From zero", 0, 12, false, 12},
		{"Unchanged", 6, 6, true, 0},
		{"Unchanged at zero", 0, 0, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Reconcile(productID, tt.oldQty, tt.newQty, actor)
			require.NoError(t, err)

			if tt.expectNil {
				assert.Nil(t, m)
				return
			}

			require.NotNil(t, m)
			assert.Equal(t, tt.expectDelta, m.Change)
			assert.Equal(t, model.ReasonAdjust, m.Reason)
			assert.Equal(t, actor, m.CreatedBy)
			assert.Equal(t, productID, m.ProductID)
			assert.NotEqual(t, uuid.Nil, m.ID)
			assert.Nil(t, m.Note)
		})
	}
}

func TestReconcile_DeltaProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	actor := uuid.New()

	for range 1000 {
		oldQty := rng.Intn(10_000)
		newQty := rng.Intn(10_000)

		m, err := Reconcile(uuid.New(), oldQty, newQty, actor)
		require.NoError(t, err)

		if newQty == oldQty {
			assert.Nil(t, m)
			continue
		}
		require.NotNil(t, m)
		assert.Equal(t, newQty-oldQty, m.Change)
		assert.Equal(t, newQty, Apply(oldQty, *m))
	}
}

func TestReconcile_RequiresActor(t *testing.T) {
	m, err := Reconcile(uuid.New(), 1, 2, uuid.Nil)

	assert.Nil(t, m)
	assert.Equal(t, model.ErrUnauthenticated, err)
}

func TestReconcile_RejectsNegativeTarget(t *testing.T) {
	m, err := Reconcile(uuid.New(), 1, -2, uuid.New())

	assert.Nil(t, m)
	assert.Equal(t, model.ErrNegativeQuantity, err)
}

func TestInitialMovement(t *testing.T) {
	productID := uuid.New()
	actor := uuid.New()

	m, err := InitialMovement(productID, 25, actor)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 25, m.Change)
	assert.Equal(t, model.ReasonAdjust, m.Reason)
	require.NotNil(t, m.Note)
	assert.Equal(t, InitialStockNote, *m.Note)

	m, err = InitialMovement(productID, 0, actor)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestNewAdjustment(t *testing.T) {
	productID := uuid.New()
	actor := uuid.New()
	blank := "   "
	note := " damaged box "

	tests := []struct {
		name      string
		req       model.AdjustRequest
		actor     uuid.UUID
		expectErr error
		expectNil bool
	}{
		{
			name:  "Restock",
			req:   model.AdjustRequest{Change: 12, Reason: model.ReasonRestock},
			actor: actor,
		},
		{
			name:  "Sale",
			req:   model.AdjustRequest{Change: -1, Reason: model.ReasonSale, Note: &note},
			actor: actor,
		},
		{
			name:  "Blank note dropped",
			req:   model.AdjustRequest{Change: 1, Reason: model.ReasonAdjust, Note: &blank},
			actor: actor,
		},
		{
			name:      "Missing actor",
			req:       model.AdjustRequest{Change: 1, Reason: model.ReasonRestock},
			actor:     uuid.Nil,
			expectErr: model.ErrUnauthenticated,
		},
		{
			name:      "Unknown reason",
			req:       model.AdjustRequest{Change: 1, Reason: "GIFT"},
			actor:     actor,
			expectErr: model.ErrInvalidReason,
		},
		{
			name:      "Zero change",
			req:       model.AdjustRequest{Change: 0, Reason: model.ReasonSale},
			actor:     actor,
			expectErr: model.ErrZeroChange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewAdjustment(productID, tt.req, tt.actor)

			if tt.expectErr != nil {
				assert.Equal(t, tt.expectErr, err)
				assert.Nil(t, m)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.req.Change, m.Change)
			assert.Equal(t, tt.req.Reason, m.Reason)
			assert.Equal(t, tt.actor, m.CreatedBy)
		})
	}

	m, err := NewAdjustment(productID, model.AdjustRequest{Change: -1, Reason: model.ReasonSale, Note: &note}, actor)
	require.NoError(t, err)
	require.NotNil(t, m.Note)
	assert.Equal(t, "damaged box", *m.Note)

	m, err = NewAdjustment(productID, model.AdjustRequest{Change: 1, Reason: model.ReasonAdjust, Note: &blank}, actor)
	require.NoError(t, err)
	assert.Nil(t, m.Note)
}

func TestApply_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	reasons := []model.Reason{model.ReasonRestock, model.ReasonSale, model.ReasonAdjust}

	movements := make([]model.Movement, 200)
	sum := 0
	for i := range movements {
		change := rng.Intn(21) - 10
		if change == 0 {
			change = 1
		}
		movements[i] = model.Movement{Change: change, Reason: reasons[i%len(reasons)]}
		sum += change
	}

	assert.Equal(t, sum, Apply(0, movements...))

	for range 10 {
		shuffled := append([]model.Movement(nil), movements...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		assert.Equal(t, sum, Apply(0, shuffled...))
	}
}

func TestApply_ConcurrentEditsBothLand(t *testing.T) {
	actor := uuid.New()
	productID := uuid.New()

	// Two sessions open the same product at qty 10 and each add one.
	a, err := Reconcile(productID, 10, 11, actor)
	require.NoError(t, err)
	b, err := Reconcile(productID, 10, 11, actor)
	require.NoError(t, err)

	assert.Equal(t, 12, Apply(10, *a, *b))
}
