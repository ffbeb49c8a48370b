package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, sku, category, cost_price, sale_price, qty, image_url, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *productRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// List retrieves one page of products matching the filter.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Query != "" {
		if filter.ExactSKU {
			conds = append(conds, "sku = "+arg(filter.Query))
		} else {
			p := arg("%" + escapeLike(filter.Query) + "%")
			conds = append(conds, fmt.Sprintf("(name ILIKE %s OR sku ILIKE %s)", p, p))
		}
	}
	if filter.Uncategorized {
		conds = append(conds, "category IS NULL")
	} else if filter.Category != "" {
		conds = append(conds, "category = "+arg(filter.Category))
	}

	query := `SELECT ` + productColumns + ` FROM products_public`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	if filter.Query != "" {
		query += ` ORDER BY name, id`
	} else {
		query += ` ORDER BY category NULLS FIRST, name, id`
	}
	query += fmt.Sprintf(` LIMIT %s OFFSET %s`, arg(filter.Limit), arg(filter.Offset))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).
			Str("query", filter.Query).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := r.collect(rows)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products_public WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// SKUExists reports whether another product already uses sku.
func (r *productRepository) SKUExists(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1 AND id <> $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, sku, excludeID).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Str("sku", sku).Msg("failed to check sku")
		return false, fmt.Errorf("failed to check sku: %w", err)
	}
	return exists, nil
}

// Create inserts a product with zero stock within the provided transaction.
// Stock is added afterwards through the ledger.
func (r *productRepository) Create(ctx context.Context, tx pgx.Tx, product *model.Product) error {
	query := `
		INSERT INTO products (id, name, sku, category, cost_price, sale_price, qty, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		product.ID,
		product.Name,
		product.SKU,
		product.Category,
		product.CostPrice,
		product.SalePrice,
		product.ImageURL,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", translateError(err))
	}
	product.Qty = 0

	r.logger.Debug().Str("product_id", product.ID.String()).Msg("product created successfully")
	return nil
}

// UpdateFields writes the non-quantity columns within the provided
// transaction. qty is left to the ledger.
func (r *productRepository) UpdateFields(ctx context.Context, tx pgx.Tx, id uuid.UUID, input model.ProductInput) (*model.Product, error) {
	query := `
		UPDATE products
		   SET name = $2, sku = $3, category = $4, cost_price = $5, sale_price = $6,
		       image_url = $7, updated_at = NOW()
		 WHERE id = $1
		RETURNING ` + productColumns

	p, err := scanProduct(tx.QueryRow(ctx, query,
		id,
		input.Name,
		input.SKU,
		input.Category,
		input.CostPrice,
		input.SalePrice,
		input.ImageURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", translateError(err))
	}

	return p, nil
}

// Qty reads the current quantity within the provided transaction.
func (r *productRepository) Qty(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int, error) {
	var qty int
	err := tx.QueryRow(ctx, `SELECT qty FROM products WHERE id = $1`, id).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to read quantity")
		return 0, fmt.Errorf("failed to read quantity: %w", err)
	}
	return qty, nil
}

// Delete removes a product and its movements.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	r.logger.Debug().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// UpsertChunk writes rows keyed on sku in a single transaction. Rows
// without a sku are always inserted. qty is never touched; a new product
// starts at zero.
func (r *productRepository) UpsertChunk(ctx context.Context, rows []model.ProductInput) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO products (name, sku, category, cost_price, sale_price, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sku) DO UPDATE
		   SET name = EXCLUDED.name,
		       category = EXCLUDED.category,
		       cost_price = EXCLUDED.cost_price,
		       sale_price = EXCLUDED.sale_price,
		       image_url = EXCLUDED.image_url,
		       updated_at = NOW()
	`

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// No-op once committed.
		_ = tx.Rollback(ctx)
	}()

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(query, row.Name, row.SKU, row.Category, row.CostPrice, row.SalePrice, row.ImageURL)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range rows {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			r.logger.Error().
				Err(err).
				Int("row", i).
				Str("name", rows[i].Name).
				Msg("failed to upsert product")
			return fmt.Errorf("failed to upsert %q: %w", rows[i].Name, translateError(err))
		}
	}
	if err := results.Close(); err != nil {
		r.logger.Error().Err(err).Msg("failed to close batch")
		return fmt.Errorf("failed to upsert products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit upsert")
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	r.logger.Debug().Int("count", len(rows)).Msg("products upserted successfully")
	return nil
}

// Export retrieves up to limit products ordered by category then name.
// Rows past the limit are dropped without notice.
func (r *productRepository) Export(ctx context.Context, limit int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products_public
		ORDER BY category NULLS FIRST, name, id
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error().Err(err).Int("limit", limit).Msg("failed to query products for export")
		return nil, fmt.Errorf("failed to query products for export: %w", err)
	}

	return r.collect(rows)
}

// Categories retrieves the distinct non-empty categories, sorted.
func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT category FROM product_categories ORDER BY category`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan categories")
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}
	return categories, nil
}

func (r *productRepository) collect(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.SKU,
		&p.Category,
		&p.CostPrice,
		&p.SalePrice,
		&p.Qty,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// escapeLike quotes the LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
