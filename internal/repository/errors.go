package repository

import (
	"errors"

	"stockroom/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes for constraint violations.
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
	checkViolation      = "23514"
)

// constraintErrors maps named constraints to the domain error they imply.
var constraintErrors = map[string]*model.DomainError{
	"products_sku_key":                model.ErrDuplicateSKU,
	"products_qty_check":              model.ErrInsufficientStock,
	"products_name_check":             model.ErrNameRequired,
	"stock_movements_change_check":    model.ErrZeroChange,
	"stock_movements_reason_check":    model.ErrInvalidReason,
	"stock_movements_product_id_fkey": model.ErrProductNotFound,
	"profiles_role_check":             model.ErrInvalidRole,
	"profiles_id_fkey":                model.ErrUserNotFound,
	"idx_auth_users_email":            model.ErrEmailTaken,
	"auth_tokens_user_id_fkey":        model.ErrUserNotFound,
}

// translateError converts a constraint violation into its domain error.
// Any other error is returned as is.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case foreignKeyViolation, uniqueViolation, checkViolation:
		if domainErr, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return domainErr
		}
	}
	return err
}
