package domain

import (
	"fmt"
	"time"
)

// Role labels the authorization level embedded in issued tokens.
type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleProfessor Role = "PROFESSOR"
	RoleAdmin     Role = "ADMIN"
)

// DefaultRole is assigned when registration omits an explicit role.
const DefaultRole = RoleStudent

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}

// ParseRole maps a raw string to a Role. Empty input yields DefaultRole.
func ParseRole(raw string) (Role, error) {
	if raw == "" {
		return DefaultRole, nil
	}
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// User is the domain model for registered identities.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
