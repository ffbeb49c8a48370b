package repository

import (
	"context"
	"time"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// List retrieves one page of products matching the filter.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. It returns nil when the
	// product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// SKUExists reports whether another product already uses sku.
	SKUExists(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error)

	// Create inserts a product with zero stock within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, product *model.Product) error

	// UpdateFields writes the non-quantity columns within the provided
	// transaction and returns the stored row, or nil when it does not exist.
	UpdateFields(ctx context.Context, tx pgx.Tx, id uuid.UUID, input model.ProductInput) (*model.Product, error)

	// Qty reads the current quantity within the provided transaction.
	Qty(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int, error)

	// Delete removes a product and, through the foreign key, its movements.
	Delete(ctx context.Context, id uuid.UUID) error

	// UpsertChunk writes rows keyed on sku in a single transaction.
	UpsertChunk(ctx context.Context, rows []model.ProductInput) error

	// Export retrieves up to limit products ordered by category then name.
	Export(ctx context.Context, limit int) ([]model.Product, error)

	// Categories retrieves the distinct non-empty categories, sorted.
	Categories(ctx context.Context) ([]string, error)
}

// MovementRepository defines the interface for stock ledger access. The
// ledger is append-only: there is no update or delete.
type MovementRepository interface {
	// Create appends a movement within the provided transaction. The
	// database applies the change to products.qty in the same transaction.
	Create(ctx context.Context, tx pgx.Tx, movement *model.Movement) error

	// List retrieves movements created in [from, to], newest first.
	List(ctx context.Context, from, to time.Time, limit int) ([]model.MovementView, error)

	// SumByProduct returns the sum of all changes recorded for a product.
	SumByProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

// ProfileRepository defines the interface for profile and role data access.
type ProfileRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// GetByID retrieves a profile by its ID. It returns nil when the
	// profile does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)

	// List retrieves all profiles, newest first.
	List(ctx context.Context) ([]model.Profile, error)

	// Upsert inserts a profile or updates the role of an existing one.
	Upsert(ctx context.Context, tx pgx.Tx, profile *model.Profile) error

	// UpdateRole changes the role of an existing profile.
	UpdateRole(ctx context.Context, tx pgx.Tx, id uuid.UUID, role model.Role) error

	// LockOwners returns the IDs of every OWNER profile, holding row locks
	// on them until the transaction ends.
	LockOwners(ctx context.Context, tx pgx.Tx) ([]uuid.UUID, error)
}

// IdentityRepository defines the interface for sign-in accounts and their
// one-time link tokens.
type IdentityRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// GetByEmail retrieves an identity by email, case-insensitively. It
	// returns nil when no identity matches.
	GetByEmail(ctx context.Context, email string) (*model.Identity, error)

	// GetByID retrieves an identity by its ID. It returns nil when the
	// identity does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Identity, error)

	// Create inserts an identity within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, identity *model.Identity) error

	// SetPassword stores a password hash. When confirm is true the identity
	// is also marked as confirmed.
	SetPassword(ctx context.Context, tx pgx.Tx, id uuid.UUID, hash string, confirm bool) error

	// Delete removes an identity together with its profile and tokens.
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// CreateToken stores a one-time link token.
	CreateToken(ctx context.Context, token *model.AuthToken) error

	// ConsumeToken marks an unused, unexpired token as used and returns it.
	// It returns nil when no such token exists.
	ConsumeToken(ctx context.Context, tx pgx.Tx, tokenHash string) (*model.AuthToken, error)
}
