package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-tenant-api/internal/apperrors"
	"github.com/jrsteele09/go-tenant-api/tenants"
	"github.com/jrsteele09/go-tenant-api/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the verified access-token claims
const ContextKeyClaims ContextKey = "claims"

// ClaimsFromContext returns the verified access-token claims attached by
// RequireAuth.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok
}

// RequireAuth validates the Bearer access token and enforces the
// tenant-binding rule: when the request also carries a resolved tenant
// context, the token's tenant claim must match it. It always runs after
// ResolveTenant in the chain, so the ordering dependency between the two
// checks is explicit in the route definition rather than implicit in
// registration order.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := bearerToken(r)
			if err != nil {
				writeError(w, err)
				return
			}

			claims, err := s.tokens.VerifyAccess(rawToken)
			if err != nil {
				writeError(w, err)
				return
			}

			if tenantCtx, ok := tenants.FromContext(r.Context()); ok {
				if tenantCtx.TenantID != claims.TenantID {
					writeError(w, apperrors.Unauthorized("Tenant mismatch"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.Unauthorized("Missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", apperrors.Unauthorized("Invalid Authorization header format")
	}

	if parts[1] == "" {
		return "", apperrors.Unauthorized("Empty token")
	}
	return parts[1], nil
}
