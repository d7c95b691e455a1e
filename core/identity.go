package core

import (
	"context"
	"errors"
)

// roles
const (
	RoleAdmin   = "ADMIN"
	RoleCreator = "CREATOR"
	RoleLearner = "LEARNER"
	RoleGuest   = "GUEST"
)

var ErrUnauthenticated = errors.New("identity could not be verified")

// Identity is the caller as vouched for by the login service. IDs are opaque to this backend.
type Identity struct {
	ID    string   `json:"_id"`
	Roles []string `json:"roles"`
}

func (id Identity) IsAdmin() bool {
	return ContainsString(id.Roles, RoleAdmin)
}

// HasAnyRole reports whether id holds one of roles; an empty roles list matches everyone.
func (id Identity) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if ContainsString(id.Roles, r) {
			return true
		}
	}
	return false
}

// IdentityVerifier resolves a bearer token to the Identity it was issued for.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
