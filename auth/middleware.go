package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/security"
)

// SessionChecker reports whether the session an access token was issued
// for is still open. *AuthService implements it.
type SessionChecker interface {
	SessionActive(ctx context.Context, userID, sessionID uuid.UUID) (bool, error)
}

// JWTMiddleware verifies the Bearer access token and stores its claims in the
// request context. With a non-nil sessions, tokens whose session was closed
// by logout or expiry are rejected.
func JWTMiddleware(sec *security.Manager, sessions SessionChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apperror.WriteError(w, r, apperror.NewAuthError("authorization header is missing", nil))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				apperror.WriteError(w, r, apperror.NewAuthError("authorization header format must be Bearer {token}", nil))
				return
			}

			claims, err := sec.VerifyToken(parts[1], security.TokenTypeAccess)
			if err != nil {
				apperror.WriteError(w, r, apperror.NewAuthError("invalid or expired token", err))
				return
			}
			if err := checkSession(r.Context(), sessions, claims); err != nil {
				apperror.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithClaims(r.Context(), claims)))
		})
	}
}

// OptionalJWT attaches claims when a valid token with an open session is
// present and lets the request through either way.
func OptionalJWT(sec *security.Manager, sessions SessionChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				claims, err := sec.VerifyToken(parts[1], security.TokenTypeAccess)
				if err == nil && checkSession(r.Context(), sessions, claims) == nil {
					r = r.WithContext(NewContextWithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func checkSession(ctx context.Context, sessions SessionChecker, claims *security.Claims) error {
	if sessions == nil {
		return nil
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return apperror.NewAuthError("invalid token subject", err)
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return apperror.NewAuthError("token is not bound to a session", err)
	}
	active, err := sessions.SessionActive(ctx, userID, sessionID)
	if err != nil {
		return apperror.NewDatabaseError("failed to check session", err)
	}
	if !active {
		return apperror.NewAuthError("session has ended", nil)
	}
	return nil
}
