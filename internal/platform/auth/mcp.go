package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	mcpauth "github.com/modelcontextprotocol/go-sdk/auth"
)

const tokenInfoPrincipal = "principal"

// MCPTokenVerifier hands the principal authenticated by JWTMiddleware to the
// MCP streamable transport. The transport binds each session to the user id
// and exposes the principal to tool handlers through the request's
// TokenInfo. It never parses the token itself, so JWTMiddleware must run
// first.
func MCPTokenVerifier() mcpauth.TokenVerifier {
	return func(ctx context.Context, _ string, _ *http.Request) (*mcpauth.TokenInfo, error) {
		p := PrincipalFromContext(ctx)
		claims := ClaimsFromContext(ctx)
		if p == nil || claims == nil || claims.ExpiresAt == nil {
			return nil, fmt.Errorf("%w: request was not authenticated", mcpauth.ErrInvalidToken)
		}
		return &mcpauth.TokenInfo{
			UserID:     strconv.FormatInt(p.UserID, 10),
			Scopes:     p.Permissions,
			Expiration: claims.ExpiresAt.Time,
			Extra:      map[string]any{tokenInfoPrincipal: p},
		}, nil
	}
}

// PrincipalFromTokenInfo recovers the principal placed by MCPTokenVerifier.
func PrincipalFromTokenInfo(ti *mcpauth.TokenInfo) *Principal {
	if ti == nil {
		return nil
	}
	p, _ := ti.Extra[tokenInfoPrincipal].(*Principal)
	return p
}
