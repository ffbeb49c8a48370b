package auth

import (
	"errors"
	"fmt"

	"stockroom/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// HashPassword validates and bcrypt-hashes a password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", model.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a password with a stored hash. A nil hash never
// matches.
func CheckPassword(hash *string, password string) error {
	if hash == nil || *hash == "" {
		return model.ErrInvalidCredentials
	}

	err := bcrypt.CompareHashAndPassword([]byte(*hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return model.ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("failed to check password: %w", err)
	}
	return nil
}
