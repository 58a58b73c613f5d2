package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type Claims struct {
	jwt.RegisteredClaims
}

type claimsKey struct{}

// ClaimsFromContext returns the verified token claims stored by
// JWTMiddleware, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

type JWTConfig struct {
	Issuer   string
	Audience string
	// SigningKey is the shared HMAC secret.
	SigningKey []byte
}

// PrincipalResolver maps a token subject (the user's email) to a principal.
// It returns an error when the user is unknown or inactive.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, email string) (*Principal, error)
}

func JWTMiddleware(cfg JWTConfig, resolver PrincipalResolver) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	keyFunc := func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			scheme, tokenStr, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenStr) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenStr), claims, keyFunc, opts...)
			if err != nil || !token.Valid || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			principal, err := resolver.ResolvePrincipal(ctx, claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown or inactive user")
			}

			c.Set("user_id", principal.UserID)
			ctx = context.WithValue(WithPrincipal(ctx, principal), claimsKey{}, claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
