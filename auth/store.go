package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Store lookups that match no row.
var ErrNotFound = errors.New("auth: record not found")

// Store is the persistence the auth service needs.
type Store interface {
	// CreateAccount inserts the user together with its primary auth provider.
	CreateAccount(ctx context.Context, a *Account, provider string) error
	// FindAccountByLogin matches an email, phone or username.
	FindAccountByLogin(ctx context.Context, login string) (*Account, error)
	FindAccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
	RecordFailedLogin(ctx context.Context, id uuid.UUID, attempts int, lockedUntil *time.Time) error
	RecordSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time, ip string) error

	CreateSession(ctx context.Context, s *UserSession) error
	FindSessionByRefreshHash(ctx context.Context, hash string) (*UserSession, error)
	RotateRefreshToken(ctx context.Context, sessionID uuid.UUID, refreshHash string, expiresAt, at time.Time) error
	DeactivateSession(ctx context.Context, userID, sessionID uuid.UUID) (bool, error)
	ListActiveSessions(ctx context.Context, userID uuid.UUID, now time.Time) ([]UserSession, error)
	// IsSessionActive reports whether the user's session is open and unexpired.
	IsSessionActive(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (bool, error)
	// DeactivateExpiredSessions closes every session past its expiry and
	// returns how many were closed.
	DeactivateExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	RecordActivity(ctx context.Context, userID uuid.UUID, activityType string, data map[string]interface{}, client ClientInfo, sessionID *uuid.UUID) error
}
