package repository

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// movementRepository implements the MovementRepository interface using PostgreSQL.
type movementRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMovementRepository creates a new PostgreSQL-backed movement repository.
func NewMovementRepository(pool *pgxpool.Pool, logger zerolog.Logger) MovementRepository {
	return &movementRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "movement").Logger(),
	}
}

// Create appends a movement within the provided transaction.
func (r *movementRepository) Create(ctx context.Context, tx pgx.Tx, movement *model.Movement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, change, reason, created_by, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := tx.QueryRow(ctx, query,
		movement.ID,
		movement.ProductID,
		movement.Change,
		string(movement.Reason),
		movement.CreatedBy,
		movement.Note,
	).Scan(&movement.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", movement.ProductID.String()).
			Int("change", movement.Change).
			Str("reason", string(movement.Reason)).
			Msg("failed to create movement")
		return fmt.Errorf("failed to create movement: %w", translateError(err))
	}

	r.logger.Debug().
		Str("movement_id", movement.ID.String()).
		Str("product_id", movement.ProductID.String()).
		Int("change", movement.Change).
		Msg("movement recorded")

	return nil
}

// List retrieves movements created in [from, to], newest first.
func (r *movementRepository) List(ctx context.Context, from, to time.Time, limit int) ([]model.MovementView, error) {
	query := `
		SELECT id, product_id, change, reason, created_by, note, created_at, product_name, product_sku
		FROM movements_public
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC, id
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, from, to, limit)
	if err != nil {
		r.logger.Error().Err(err).
			Time("from", from).
			Time("to", to).
			Msg("failed to query movements")
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	movements := []model.MovementView{}
	for rows.Next() {
		var (
			m      model.MovementView
			reason string
		)
		err := rows.Scan(
			&m.ID,
			&m.ProductID,
			&m.Change,
			&reason,
			&m.CreatedBy,
			&m.Note,
			&m.CreatedAt,
			&m.ProductName,
			&m.ProductSKU,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan movement row")
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		m.Reason = model.Reason(reason)
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating movement rows")
		return nil, fmt.Errorf("error iterating movements: %w", err)
	}

	return movements, nil
}

// SumByProduct returns the sum of all changes recorded for a product.
func (r *movementRepository) SumByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	query := `SELECT COALESCE(SUM(change), 0) FROM stock_movements WHERE product_id = $1`

	var sum int
	if err := r.pool.QueryRow(ctx, query, productID).Scan(&sum); err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to sum movements")
		return 0, fmt.Errorf("failed to sum movements: %w", err)
	}
	return sum, nil
}
