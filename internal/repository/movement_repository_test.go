package repository

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordMovement(t *testing.T, repo MovementRepository, products ProductRepository, m *model.Movement) error {
	t.Helper()

	ctx := context.Background()
	tx, err := products.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	if err := repo.Create(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func TestMovementRepository_LedgerDrivesQty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	logger := zerolog.Nop()
	repo := NewMovementRepository(pool, logger)
	products := NewProductRepository(pool, logger)
	actor := uuid.New()
	id := seedProduct(t, pool, "Rice 5kg", nil, nil, 50, actor)

	rng := rand.New(rand.NewSource(3))
	reasons := []model.Reason{model.ReasonRestock, model.ReasonSale, model.ReasonAdjust}
	for i := range 40 {
		change := rng.Intn(5) + 1
		if i%2 == 1 {
			change = -change
		}
		require.NoError(t, recordMovement(t, repo, products, &model.Movement{
			ID:        uuid.New(),
			ProductID: id,
			Change:    change,
			Reason:    reasons[i%len(reasons)],
			CreatedBy: actor,
		}))
	}

	sum, err := repo.SumByProduct(ctx, id)
	require.NoError(t, err)

	product, err := products.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sum, product.Qty)
}

func TestMovementRepository_Constraints(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zerolog.Nop()
	repo := NewMovementRepository(pool, logger)
	products := NewProductRepository(pool, logger)
	actor := uuid.New()
	id := seedProduct(t, pool, "Rice 5kg", nil, nil, 2, actor)

	tests := []struct {
		name      string
		movement  model.Movement
		expectErr error
	}{
		{
			name:      "Below zero",
			movement:  model.Movement{ProductID: id, Change: -3, Reason: model.ReasonSale},
			expectErr: model.ErrInsufficientStock,
		},
		{
			name:      "Zero change",
			movement:  model.Movement{ProductID: id, Change: 0, Reason: model.ReasonAdjust},
			expectErr: model.ErrZeroChange,
		},
		{
			name:      "Unknown reason",
			movement:  model.Movement{ProductID: id, Change: 1, Reason: "GIFT"},
			expectErr: model.ErrInvalidReason,
		},
		{
			name:      "Unknown product",
			movement:  model.Movement{ProductID: uuid.New(), Change: 1, Reason: model.ReasonRestock},
			expectErr: model.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.movement
			m.ID = uuid.New()
			m.CreatedBy = actor

			err := recordMovement(t, repo, products, &m)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectErr)
		})
	}

	product, err := products.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, product.Qty)
}

func TestMovementRepository_AppendOnly(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := seedProduct(t, pool, "Rice 5kg", nil, nil, 5, uuid.New())

	_, err := pool.Exec(ctx, `UPDATE stock_movements SET change = 50 WHERE product_id = $1`, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	_, err = pool.Exec(ctx, `DELETE FROM stock_movements WHERE product_id = $1`, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	sum, err := NewMovementRepository(pool, zerolog.Nop()).SumByProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, sum)
}

func TestMovementRepository_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	logger := zerolog.Nop()
	repo := NewMovementRepository(pool, logger)
	products := NewProductRepository(pool, logger)
	actor := uuid.New()

	rice := seedProduct(t, pool, "Rice 5kg", strPtr("R5"), nil, 10, actor)
	seedProduct(t, pool, "Fish sauce", nil, nil, 3, actor)
	require.NoError(t, recordMovement(t, repo, products, &model.Movement{
		ID: uuid.New(), ProductID: rice, Change: -2, Reason: model.ReasonSale, CreatedBy: actor,
	}))

	// Age one entry out of the window.
	_, err := pool.Exec(ctx, `
		ALTER TABLE stock_movements DISABLE TRIGGER trg_reject_movement_update;
		UPDATE stock_movements SET created_at = NOW() - INTERVAL '40 days' WHERE change = 3;
		ALTER TABLE stock_movements ENABLE TRIGGER trg_reject_movement_update;
	`)
	require.NoError(t, err)

	now := time.Now()
	rows, err := repo.List(ctx, now.Add(-24*time.Hour), now.Add(time.Minute), 1000)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, -2, rows[0].Change)
	assert.Equal(t, model.ReasonSale, rows[0].Reason)
	require.NotNil(t, rows[0].ProductName)
	assert.Equal(t, "Rice 5kg", *rows[0].ProductName)
	require.NotNil(t, rows[0].ProductSKU)
	assert.Equal(t, "R5", *rows[0].ProductSKU)
	assert.Equal(t, 10, rows[1].Change)
	require.NotNil(t, rows[1].Note)
	assert.Equal(t, "initial stock", *rows[1].Note)

	limited, err := repo.List(ctx, now.Add(-24*time.Hour), now.Add(time.Minute), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
