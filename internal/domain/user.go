package domain

import (
	"fmt"
	"time"
)

// Role is the authorization role carried inside access tokens.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleOwner Role = "OWNER"
	RoleUser  Role = "USER"
)

// ParseRole validates a role string coming from untrusted input such as
// a token payload or a registration request.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleOwner, RoleUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User represents an account that can authenticate. RefreshToken holds
// the single live refresh token for the account; an empty string means
// the user is logged out.
type User struct {
	ID           int64
	Email        string
	Name         string
	Address      string
	PasswordHash string
	Role         Role
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the immutable view of a user that gets signed into access
// tokens. Role changes only take effect once a new token is issued.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Identity returns the token-facing view of the user.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}
