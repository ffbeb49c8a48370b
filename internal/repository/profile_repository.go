package repository

import (
	"context"
	"errors"
	"fmt"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// profileRepository implements the ProfileRepository interface using PostgreSQL.
type profileRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProfileRepository {
	return &profileRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "profile").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *profileRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// GetByID retrieves a profile by its ID.
func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `SELECT id, display_name, role, created_at FROM profiles WHERE id = $1`

	p, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("profile_id", id.String()).Msg("profile not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("profile_id", id.String()).Msg("failed to query profile")
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return p, nil
}

// List retrieves all profiles, newest first.
func (r *profileRepository) List(ctx context.Context) ([]model.Profile, error) {
	query := `SELECT id, display_name, role, created_at FROM profiles ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query profiles")
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan profile row")
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating profile rows")
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}

// Upsert inserts a profile or updates the role of an existing one. The
// display name of an existing profile is kept unless a new one is given.
func (r *profileRepository) Upsert(ctx context.Context, tx pgx.Tx, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (id, display_name, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		   SET role = EXCLUDED.role,
		       display_name = COALESCE(EXCLUDED.display_name, profiles.display_name)
		RETURNING created_at
	`

	err := tx.QueryRow(ctx, query, profile.ID, profile.DisplayName, string(profile.Role)).Scan(&profile.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("profile_id", profile.ID.String()).Msg("failed to upsert profile")
		return fmt.Errorf("failed to upsert profile: %w", translateError(err))
	}

	r.logger.Debug().
		Str("profile_id", profile.ID.String()).
		Str("role", string(profile.Role)).
		Msg("profile upserted")
	return nil
}

// UpdateRole changes the role of an existing profile.
func (r *profileRepository) UpdateRole(ctx context.Context, tx pgx.Tx, id uuid.UUID, role model.Role) error {
	tag, err := tx.Exec(ctx, `UPDATE profiles SET role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		r.logger.Error().Err(err).Str("profile_id", id.String()).Msg("failed to update role")
		return fmt.Errorf("failed to update role: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}

// LockOwners returns the IDs of every OWNER profile and locks those rows
// until the transaction ends, so two concurrent removals cannot both see
// a second owner.
func (r *profileRepository) LockOwners(ctx context.Context, tx pgx.Tx) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `SELECT id FROM profiles WHERE role = 'OWNER' ORDER BY id FOR UPDATE`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to lock owners")
		return nil, fmt.Errorf("failed to lock owners: %w", err)
	}

	owners, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan owners")
		return nil, fmt.Errorf("failed to scan owners: %w", err)
	}
	return owners, nil
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var (
		p    model.Profile
		role string
	)
	if err := row.Scan(&p.ID, &p.DisplayName, &role, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Role = model.Role(role)
	return &p, nil
}
