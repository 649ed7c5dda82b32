package auth

import (
	"fmt"
	"strings"
)

// Role is an ordered permission level. Higher roles subsume lower ones,
// so a single comparison is enough for any access check.
type Role int8

const (
	RoleUser Role = iota
	RolePublisher
	RoleAdmin
)

func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "user":
		return RoleUser, nil
	case "publisher":
		return RolePublisher, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUser, fmt.Errorf("unknown role %q", value)
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RolePublisher:
		return "publisher"
	default:
		return "user"
	}
}

// AtLeast reports whether the role satisfies the given minimum level.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// IsManager reports whether the role may create and manage events.
func (r Role) IsManager() bool {
	return r.AtLeast(RolePublisher)
}

// Identity is the authenticated caller, resolved from a bearer token
// against the user store and passed explicitly through request context.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}
