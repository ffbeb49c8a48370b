// Package auth issues and verifies bearer tokens, hashes passwords, builds
// one-time links and delivers them by mail.
package auth

import (
	"errors"
	"fmt"
	"time"

	"stockroom/internal/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenType is the scheme reported with issued tokens.
const TokenType = "Bearer"

// TokenIssuer signs and verifies HS256 bearer tokens whose subject is the
// user id.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer for the given secret and lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for userID.
func (i *TokenIssuer) Issue(userID uuid.UUID) (*model.TokenResponse, error) {
	now := i.now()
	expires := now.Add(i.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: signed,
		TokenType:   TokenType,
		ExpiresAt:   expires.UTC().Truncate(time.Second),
		UserID:      userID,
	}, nil
}

// Verify parses a signed token and returns its subject. Any failure is
// reported as model.ErrUnauthenticated.
func (i *TokenIssuer) Verify(token string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, errors.Join(model.ErrUnauthenticated, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, model.ErrUnauthenticated
	}
	return userID, nil
}
