package repository

import (
	"context"
	"testing"
	"time"

	"stockroom/internal/database"
	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the service schema
// applied and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedIdentity inserts an identity with a profile of the given role.
func seedIdentity(t *testing.T, pool *pgxpool.Pool, email string, role model.Role) uuid.UUID {
	t.Helper()

	ctx := context.Background()
	id := uuid.New()

	_, err := pool.Exec(ctx, `INSERT INTO auth_users (id, email) VALUES ($1, $2)`, id, email)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO profiles (id, role) VALUES ($1, $2)`, id, string(role))
	require.NoError(t, err)

	return id
}

// seedProduct creates a product and books qty through the ledger.
func seedProduct(t *testing.T, pool *pgxpool.Pool, name string, sku, category *string, qty int, actor uuid.UUID) uuid.UUID {
	t.Helper()

	ctx := context.Background()
	logger := zerolog.Nop()
	products := NewProductRepository(pool, logger)
	movements := NewMovementRepository(pool, logger)

	tx, err := products.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	p := &model.Product{
		ID:        uuid.New(),
		Name:      name,
		SKU:       sku,
		Category:  category,
		SalePrice: decimal.NewNullDecimal(decimal.RequireFromString("9.50")),
	}
	require.NoError(t, products.Create(ctx, tx, p))

	if qty != 0 {
		note := "initial stock"
		require.NoError(t, movements.Create(ctx, tx, &model.Movement{
			ID:        uuid.New(),
			ProductID: p.ID,
			Change:    qty,
			Reason:    model.ReasonAdjust,
			CreatedBy: actor,
			Note:      &note,
		}))
	}

	require.NoError(t, tx.Commit(ctx))
	return p.ID
}

func strPtr(s string) *string {
	return &s
}
