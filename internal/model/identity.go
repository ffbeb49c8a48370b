package model

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a sign-in account.
type Identity struct {
	ID           uuid.UUID  `db:"id"`
	Email        string     `db:"email"`
	PasswordHash *string    `db:"password_hash"`
	CreatedAt    time.Time  `db:"created_at"`
	ConfirmedAt  *time.Time `db:"confirmed_at"`
}

// LinkKind is the purpose of a one-time auth link.
type LinkKind string

const (
	LinkInvite   LinkKind = "invite"
	LinkSignup   LinkKind = "signup"
	LinkRecovery LinkKind = "recovery"
)

// AuthToken is a stored one-time link token. Only its hash is persisted.
type AuthToken struct {
	TokenHash string     `db:"token_hash"`
	UserID    uuid.UUID  `db:"user_id"`
	Kind      LinkKind   `db:"kind"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
}

// LoginRequest exchanges credentials for a bearer token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AcceptRequest redeems a one-time link and sets a password.
type AcceptRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      uuid.UUID `json:"userId"`
}

// InviteRequest is the payload of the invite endpoint.
type InviteRequest struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// InviteResponse reports how an invitation was delivered. Exactly one of
// the link fields is set depending on Method/Status.
type InviteResponse struct {
	OK           bool    `json:"ok"`
	Email        string  `json:"email"`
	Status       string  `json:"status,omitempty"`
	Method       string  `json:"method,omitempty"`
	RecoveryLink *string `json:"recovery_link,omitempty"`
	SignupLink   *string `json:"signup_link,omitempty"`
	TempPassword string  `json:"tempPassword,omitempty"`
	Message      string  `json:"message"`
}

// ResetPasswordRequest is the payload of the reset-password endpoint.
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordResponse reports whether the recovery link was mailed or
// must be handed over manually.
type ResetPasswordResponse struct {
	OK         bool    `json:"ok"`
	Mode       string  `json:"mode"`
	ActionLink *string `json:"action_link,omitempty"`
	Message    string  `json:"message"`
}

// DeleteUserRequest is the payload of the delete-user endpoint.
type DeleteUserRequest struct {
	TargetUserID uuid.UUID `json:"targetUserId"`
	ActorUserID  uuid.UUID `json:"actorUserId"`
}

// OKResponse is a bare success body.
type OKResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}
