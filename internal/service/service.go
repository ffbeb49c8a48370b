package service

import (
	"context"
	"fmt"
	"io"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ProductService defines operations for catalogue management.
type ProductService interface {
	// List retrieves one page of the catalogue. An all-digit query of six
	// or more characters is treated as a scanned barcode.
	List(ctx context.Context, query, category string, page int) (*model.ProductPage, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create adds a product and records its starting stock in the ledger.
	Create(ctx context.Context, actor model.Actor, req *model.CreateProductRequest) (*model.Product, error)

	// Update saves an edit. A changed quantity is recorded as an ADJUST
	// movement; the quantity column is never written directly.
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateProductRequest) (*model.UpdateProductResponse, error)

	// Delete removes a product together with its movements.
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error

	// Categories retrieves the distinct categories in use.
	Categories(ctx context.Context) ([]string, error)
}

// StockService defines quick stock changes.
type StockService interface {
	// Adjust appends a signed movement and returns the expected quantity.
	Adjust(ctx context.Context, actor model.Actor, productID uuid.UUID, req *model.AdjustRequest) (*model.AdjustResponse, error)

	// Drift lists products whose quantity no longer matches their ledger.
	Drift(ctx context.Context) ([]model.LedgerDrift, error)
}

// MovementService defines ledger history queries.
type MovementService interface {
	// History retrieves movements within a named or custom range.
	History(ctx context.Context, rangeKey, from, to string) (*model.MovementHistory, error)
}

// TransferService defines CSV import and export.
type TransferService interface {
	// Preview parses an uploaded CSV and suggests a column mapping.
	Preview(ctx context.Context, r io.Reader) (*model.ImportPreview, error)

	// Import parses an uploaded CSV, maps it and upserts it in chunks.
	Import(ctx context.Context, actor model.Actor, r io.Reader, mapping map[string]string) (*model.ImportResult, error)

	// Export writes the catalogue as CSV and returns the row count.
	Export(ctx context.Context, w io.Writer) (int, error)

	// Snapshot writes an export to file storage and returns its URL.
	Snapshot(ctx context.Context) (string, error)
}

// MediaService defines product image uploads.
type MediaService interface {
	// UploadImage stores an image and returns its public URL.
	UploadImage(ctx context.Context, actor model.Actor, filename string, r io.Reader) (*model.UploadResponse, error)

	// Open reads a stored file back along with its content type.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// UserService defines profile and administrative user operations.
type UserService interface {
	// Me describes the signed-in actor.
	Me(ctx context.Context, actor model.Actor) (*model.Me, error)

	// Profiles retrieves all profiles, newest first.
	Profiles(ctx context.Context) ([]model.Profile, error)

	// UpdateRole changes a profile's role. The last OWNER cannot be demoted.
	UpdateRole(ctx context.Context, actor model.Actor, id uuid.UUID, role model.Role) (*model.Profile, error)

	// Invite creates or updates a user and hands out a link to sign in.
	Invite(ctx context.Context, req *model.InviteRequest) (*model.InviteResponse, error)

	// ResetPassword creates a recovery link, mailing it when possible.
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) (*model.ResetPasswordResponse, error)

	// DeleteUser removes a user. Self-deletion and deleting the last OWNER
	// are rejected.
	DeleteUser(ctx context.Context, req *model.DeleteUserRequest) error
}

// AuthService defines sign-in operations.
type AuthService interface {
	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)

	// Accept redeems a one-time link, sets the password and signs the user in.
	Accept(ctx context.Context, req *model.AcceptRequest) (*model.TokenResponse, error)

	// Authenticate resolves a bearer token to the calling actor.
	Authenticate(ctx context.Context, token string) (model.Actor, error)
}

// requireActor rejects anonymous callers.
func requireActor(actor model.Actor) error {
	if actor.ID == uuid.Nil {
		return model.ErrUnauthenticated
	}
	return nil
}

// requireManager applies the MANAGER/OWNER role gate.
func requireManager(actor model.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.Role.CanManage() {
		return model.ErrForbidden
	}
	return nil
}

// txStarter is implemented by repositories that can open a transaction.
type txStarter interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// withTx runs fn in a transaction, committing when it succeeds and rolling
// back otherwise.
func withTx(ctx context.Context, starter txStarter, logger zerolog.Logger, fn func(tx pgx.Tx) error) (err error) {
	tx, err := starter.BeginTx(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
