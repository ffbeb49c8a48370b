package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"stockroom/internal/model"

	"github.com/google/uuid"
)

// TempPasswordPrefix starts every generated temporary password.
const TempPasswordPrefix = "Temp@"

// NewLinkToken returns a random one-time token together with the hash that
// is stored in its place.
func NewLinkToken() (token, hash string) {
	token = strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return token, HashToken(token)
}

// HashToken hashes a one-time token for storage and lookup.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewAuthToken creates a token row of the given kind for userID along with
// the raw token to put in the link.
func NewAuthToken(userID uuid.UUID, kind model.LinkKind, ttl time.Duration, now time.Time) (*model.AuthToken, string) {
	token, hash := NewLinkToken()
	return &model.AuthToken{
		TokenHash: hash,
		UserID:    userID,
		Kind:      kind,
		ExpiresAt: now.Add(ttl),
	}, token
}

// LinkURL builds the confirmation link for a token.
func LinkURL(siteURL string, kind model.LinkKind, token string) string {
	q := url.Values{}
	q.Set("type", string(kind))
	q.Set("token", token)
	return strings.TrimSuffix(siteURL, "/") + "/auth/confirm?" + q.Encode()
}

// TempPassword returns a throwaway password such as "Temp@1a2b3c4d".
func TempPassword() string {
	return TempPasswordPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
