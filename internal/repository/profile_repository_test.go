package repository

import (
	"context"
	"testing"
	"time"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_GetAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProfileRepository(pool, zerolog.Nop())

	owner := seedIdentity(t, pool, "owner@example.com", model.RoleOwner)
	time.Sleep(10 * time.Millisecond)
	staff := seedIdentity(t, pool, "staff@example.com", model.RoleStaff)

	profile, err := repo.GetByID(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, model.RoleOwner, profile.Role)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	profiles, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, staff, profiles[0].ID)
	assert.Equal(t, owner, profiles[1].ID)
}

func TestProfileRepository_UpsertAndUpdateRole(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProfileRepository(pool, zerolog.Nop())
	id := seedIdentity(t, pool, "staff@example.com", model.RoleStaff)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, tx, &model.Profile{ID: id, Role: model.RoleManager}))
	require.NoError(t, tx.Commit(ctx))

	profile, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, profile.Role)

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateRole(ctx, tx, id, model.RoleOwner))
	require.NoError(t, tx.Commit(ctx))

	profile, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, profile.Role)

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()
	assert.Equal(t, model.ErrProfileNotFound, repo.UpdateRole(ctx, tx, uuid.New(), model.RoleStaff))
}

func TestProfileRepository_UpsertRequiresIdentity(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProfileRepository(pool, zerolog.Nop())

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	err = repo.Upsert(ctx, tx, &model.Profile{ID: uuid.New(), Role: model.RoleStaff})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestProfileRepository_LockOwners(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProfileRepository(pool, zerolog.Nop())

	first := seedIdentity(t, pool, "a@example.com", model.RoleOwner)
	second := seedIdentity(t, pool, "b@example.com", model.RoleOwner)
	seedIdentity(t, pool, "c@example.com", model.RoleManager)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	owners, err := repo.LockOwners(ctx, tx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{first, second}, owners)

	// A second transaction cannot take the same locks until the first ends.
	other, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = other.Rollback(ctx) }()

	_, err = other.Exec(ctx, `SET LOCAL lock_timeout = '200ms'`)
	require.NoError(t, err)
	_, err = repo.LockOwners(ctx, other)
	require.Error(t, err)
}
