package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/user/jarvisfi-go/security"
)

// contextKey is unexported so other packages cannot collide with it.
type contextKey string

const claimsContextKey contextKey = "auth_claims"

// NewContextWithClaims returns a copy of ctx carrying verified access token claims.
func NewContextWithClaims(ctx context.Context, claims *security.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts the claims stored by JWTMiddleware.
func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*security.Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user's id.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SessionIDFromContext returns the session the access token was issued for.
func SessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.SessionID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
