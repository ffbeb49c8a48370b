package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is a staff permission level.
type Role string

const (
	RoleStaff   Role = "STAFF"
	RoleManager Role = "MANAGER"
	RoleOwner   Role = "OWNER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleManager, RoleOwner:
		return true
	}
	return false
}

// CanManage reports whether r passes the manager role gate.
func (r Role) CanManage() bool {
	return r == RoleManager || r == RoleOwner
}

// Profile links an identity to a display name and role.
type Profile struct {
	ID          uuid.UUID `json:"id" db:"id"`
	DisplayName *string   `json:"displayName" db:"display_name"`
	Role        Role      `json:"role" db:"role"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Me describes the signed-in actor.
type Me struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	CanManage bool      `json:"canManage"`
}

// RoleUpdateRequest changes a profile's role.
type RoleUpdateRequest struct {
	Role Role `json:"role"`
}

// Actor is the authenticated caller of a request.
type Actor struct {
	ID   uuid.UUID
	Role Role
}
