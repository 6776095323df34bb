package shared

import (
	"context"
	"strings"
)

// Role is the coarse role issued by the identity provider.
type Role string

const (
	// RoleAdmin bypasses per-warehouse access checks.
	RoleAdmin Role = "ADMIN"
	// RoleStaff needs an approved warehouse grant.
	RoleStaff Role = "STAFF"
)

// ParseRole normalises a role claim. Unknown values yield "".
func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStaff:
		return RoleStaff
	}
	return ""
}

// Principal is the authenticated identity acting on a request.
type Principal struct {
	ID    string
	Role  Role
	Email string
	Name  string
}

// Valid reports whether the principal carries an id and a known role.
func (p Principal) Valid() bool {
	return p.ID != "" && (p.Role == RoleAdmin || p.Role == RoleStaff)
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// RequireAdmin returns ErrUnauthenticated or ErrForbidden unless p is an admin.
func (p Principal) RequireAdmin() error {
	if !p.Valid() {
		return ErrUnauthenticated
	}
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok && p.Valid()
}
