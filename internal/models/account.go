package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the mutually exclusive actor role of an account.
type Role string

const (
	RoleWorker Role = "worker"
	RoleBuyer  Role = "buyer"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleWorker, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

// Selectable reports whether r may be chosen by the account holder.
func (r Role) Selectable() bool {
	return r == RoleWorker || r == RoleBuyer
}

type Account struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	DisplayName          string    `json:"display_name"`
	PhotoURL             string    `json:"photo_url,omitempty"`
	PasswordHash         string    `json:"-"`
	Role                 Role      `json:"role"`
	Coins                int64     `json:"coins"`
	TotalEarned          int64     `json:"total_earned"`
	TotalSpent           int64     `json:"total_spent"`
	InitialCoinsReceived bool      `json:"initial_coins_received"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CanSelectRole reports whether the account may switch to role. Workers may
// become buyers once; any other role is fixed.
func (a *Account) CanSelectRole(role Role) bool {
	return a.Role == RoleWorker || a.Role == role
}
