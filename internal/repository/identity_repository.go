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

// identityRepository implements the IdentityRepository interface using PostgreSQL.
type identityRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewIdentityRepository creates a new PostgreSQL-backed identity repository.
func NewIdentityRepository(pool *pgxpool.Pool, logger zerolog.Logger) IdentityRepository {
	return &identityRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "identity").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *identityRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// GetByEmail retrieves an identity by email, case-insensitively.
func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*model.Identity, error) {
	query := `
		SELECT id, email, password_hash, created_at, confirmed_at
		FROM auth_users
		WHERE LOWER(email) = LOWER($1)
	`

	identity, err := scanIdentity(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query identity by email")
		return nil, fmt.Errorf("failed to query identity: %w", err)
	}
	return identity, nil
}

// GetByID retrieves an identity by its ID.
func (r *identityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	query := `
		SELECT id, email, password_hash, created_at, confirmed_at
		FROM auth_users
		WHERE id = $1
	`

	identity, err := scanIdentity(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("user_id", id.String()).Msg("identity not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query identity")
		return nil, fmt.Errorf("failed to query identity: %w", err)
	}
	return identity, nil
}

// Create inserts an identity within the provided transaction.
func (r *identityRepository) Create(ctx context.Context, tx pgx.Tx, identity *model.Identity) error {
	query := `
		INSERT INTO auth_users (id, email, password_hash, confirmed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := tx.QueryRow(ctx, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		identity.ConfirmedAt,
	).Scan(&identity.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", identity.ID.String()).Msg("failed to create identity")
		return fmt.Errorf("failed to create identity: %w", translateError(err))
	}

	r.logger.Debug().Str("user_id", identity.ID.String()).Msg("identity created")
	return nil
}

// SetPassword stores a password hash, optionally confirming the identity.
func (r *identityRepository) SetPassword(ctx context.Context, tx pgx.Tx, id uuid.UUID, hash string, confirm bool) error {
	query := `
		UPDATE auth_users
		   SET password_hash = $2,
		       confirmed_at = CASE WHEN $3 THEN COALESCE(confirmed_at, NOW()) ELSE confirmed_at END
		 WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, hash, confirm)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to set password")
		return fmt.Errorf("failed to set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// Delete removes an identity. Its profile and tokens go with it.
func (r *identityRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM auth_users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to delete identity")
		return fmt.Errorf("failed to delete identity: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}

	r.logger.Debug().Str("user_id", id.String()).Msg("identity deleted")
	return nil
}

// CreateToken stores a one-time link token.
func (r *identityRepository) CreateToken(ctx context.Context, token *model.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (token_hash, user_id, kind, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, token.TokenHash, token.UserID, string(token.Kind), token.ExpiresAt)
	if err != nil {
		r.logger.Error().Err(err).
			Str("user_id", token.UserID.String()).
			Str("kind", string(token.Kind)).
			Msg("failed to create token")
		return fmt.Errorf("failed to create token: %w", translateError(err))
	}
	return nil
}

// ConsumeToken marks an unused, unexpired token as used and returns it.
func (r *identityRepository) ConsumeToken(ctx context.Context, tx pgx.Tx, tokenHash string) (*model.AuthToken, error) {
	query := `
		UPDATE auth_tokens
		   SET used_at = NOW()
		 WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING token_hash, user_id, kind, expires_at, used_at
	`

	var (
		t    model.AuthToken
		kind string
	)
	err := tx.QueryRow(ctx, query, tokenHash).Scan(&t.TokenHash, &t.UserID, &kind, &t.ExpiresAt, &t.UsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to consume token")
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}
	t.Kind = model.LinkKind(kind)
	return &t, nil
}

func scanIdentity(row pgx.Row) (*model.Identity, error) {
	var i model.Identity
	if err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt, &i.ConfirmedAt); err != nil {
		return nil, err
	}
	return &i, nil
}
