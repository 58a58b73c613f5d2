package auth

import (
	"context"
	"slices"
)

// Principal is the authenticated caller, resolved from a bearer token to a
// users row.
type Principal struct {
	UserID      int64    `json:"user_id"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Can reports whether the principal holds permission code perm.
func (p *Principal) Can(perm string) bool {
	return slices.Contains(p.Permissions, perm)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller, or nil for unauthenticated local
// transports.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
