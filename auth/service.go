// Package auth handles registration, login with lockout, token refresh with
// rotation, logout and session listing, plus the JWT middleware that guards
// authenticated routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/db"
	"github.com/user/jarvisfi-go/security"
)

// AuthService provides authentication-related services.
type AuthService struct {
	store Store
	sec   *security.Manager
	audit *security.AuditLogger
	log   *zap.Logger
	now   func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(store Store, sec *security.Manager, audit *security.AuditLogger, log *zap.Logger) *AuthService {
	return &AuthService{
		store: store,
		sec:   sec,
		audit: audit,
		log:   log.With(zap.String("module", "auth")),
		now:   time.Now,
	}
}

// Register creates a new local account. The password must pass every
// strength check.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AccountResponse, error) {
	if err := security.ValidateStruct(req); err != nil {
		return nil, err
	}
	strength := security.ValidatePasswordStrength(req.Password)
	if !strength.Valid {
		details := make(map[string]string, len(strength.Issues))
		for i, issue := range strength.Issues {
			details[fmt.Sprintf("password_%d", i+1)] = issue
		}
		return nil, apperror.NewValidationError("password is too weak", nil).WithDetails(details)
	}

	hash, err := s.sec.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	account := &Account{
		ID:                uuid.New(),
		Email:             &email,
		Phone:             optional(req.Phone),
		Username:          optional(req.Username),
		PasswordHash:      hash,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		UserType:          defaultString(req.UserType, "beginner"),
		PreferredLanguage: defaultString(req.PreferredLanguage, "en"),
		Status:            "pending_verification",
		IsActive:          true,
		CreatedAt:         s.now(),
	}

	if err := s.store.CreateAccount(ctx, account, ProviderLocal); err != nil {
		if constraint, ok := db.IsUniqueViolation(err); ok {
			return nil, apperror.NewConflictError(conflictMessage(constraint), nil)
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}

	s.log.Info("user registered", zap.String("user_id", account.ID.String()), zap.String("user_type", account.UserType))
	resp := newAccountResponse(account)
	return &resp, nil
}

func conflictMessage(constraint string) string {
	for _, field := range []string{"email", "phone", "username"} {
		if strings.Contains(constraint, field) {
			return field + " already exists"
		}
	}
	return "user already exists"
}

// Login authenticates a user by email, phone or username and opens a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*LoginResponse, error) {
	if err := security.ValidateStruct(req); err != nil {
		return nil, err
	}
	now := s.now()

	account, err := s.store.FindAccountByLogin(ctx, req.Login)
	if errors.Is(err, ErrNotFound) {
		s.audit.Log(security.EventLoginFailure, "", map[string]interface{}{"login": req.Login, "reason": "unknown_user", "ip": client.IPAddress})
		return nil, apperror.NewAuthError("invalid credentials", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	userID := account.ID.String()

	if account.IsLocked(now) {
		s.audit.Log(security.EventLoginFailure, userID, map[string]interface{}{"reason": "locked", "ip": client.IPAddress})
		return nil, apperror.NewAuthError(
			fmt.Sprintf("account is locked until %s", account.LockedUntil.UTC().Format(time.RFC3339)), nil)
	}
	if !account.IsActive || account.Status == "suspended" || account.Status == "deleted" {
		s.audit.Log(security.EventLoginFailure, userID, map[string]interface{}{"reason": "inactive", "ip": client.IPAddress})
		return nil, apperror.NewAuthError("account is not active", nil)
	}

	if !s.sec.VerifyPassword(req.Password, account.PasswordHash) {
		return nil, s.failLogin(ctx, account, client, now)
	}

	if err := s.store.RecordSuccessfulLogin(ctx, account.ID, now, client.IPAddress); err != nil {
		return nil, apperror.NewDatabaseError("failed to record login", err)
	}

	session, pair, err := s.openSession(ctx, account.ID, client, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.RecordActivity(ctx, account.ID, "login", map[string]interface{}{"method": "password"}, client, &session.ID); err != nil {
		s.log.Warn("failed to record login activity", zap.String("user_id", userID), zap.Error(err))
	}
	s.audit.Log(security.EventLoginSuccess, userID, map[string]interface{}{"ip": client.IPAddress, "session_id": session.ID.String()})

	return &LoginResponse{TokenPair: *pair, SessionID: session.ID, User: newAccountResponse(account)}, nil
}

// failLogin counts a failed attempt and locks the account once the limit is
// reached. A lock that has already expired starts a fresh count.
func (s *AuthService) failLogin(ctx context.Context, account *Account, client ClientInfo, now time.Time) error {
	cfg := s.sec.Config()
	attempts := account.FailedLoginAttempts
	if account.LockedUntil != nil {
		attempts = 0
	}
	attempts++

	var lockedUntil *time.Time
	if cfg.MaxLoginAttempts > 0 && attempts >= cfg.MaxLoginAttempts {
		until := now.Add(cfg.LockoutDuration)
		lockedUntil = &until
	}
	if err := s.store.RecordFailedLogin(ctx, account.ID, attempts, lockedUntil); err != nil {
		return apperror.NewDatabaseError("failed to record login attempt", err)
	}

	userID := account.ID.String()
	s.audit.Log(security.EventLoginFailure, userID, map[string]interface{}{"reason": "bad_password", "attempts": attempts, "ip": client.IPAddress})
	if lockedUntil != nil {
		s.audit.Log(security.EventAccountLocked, userID, map[string]interface{}{"attempts": attempts, "locked_until": lockedUntil.UTC()})
		return apperror.NewAuthError(
			fmt.Sprintf("too many failed attempts, account is locked until %s", lockedUntil.UTC().Format(time.RFC3339)), nil)
	}
	return apperror.NewAuthError("invalid credentials", nil)
}

func (s *AuthService) openSession(ctx context.Context, userID uuid.UUID, client ClientInfo, now time.Time) (*UserSession, *security.TokenPair, error) {
	session := &UserSession{
		ID:           uuid.New(),
		UserID:       userID,
		SessionToken: security.GenerateSessionID(),
		IPAddress:    client.IPAddress,
		UserAgent:    client.UserAgent,
		DeviceInfo:   client.DeviceInfo,
		IsActive:     true,
		CreatedAt:    now,
		LastActivity: now,
	}
	pair, refreshExp, err := s.issueTokens(userID, session.ID)
	if err != nil {
		return nil, nil, err
	}
	session.RefreshHash = security.HashSensitive(pair.RefreshToken)
	session.ExpiresAt = refreshExp

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, nil, apperror.NewDatabaseError("failed to create session", err)
	}
	return session, pair, nil
}

func (s *AuthService) issueTokens(userID, sessionID uuid.UUID) (*security.TokenPair, time.Time, error) {
	subject := userID.String()
	access, accessExp, err := s.sec.CreateAccessToken(subject, map[string]interface{}{"session_id": sessionID.String()}, 0)
	if err != nil {
		return nil, time.Time{}, apperror.NewInternalError("failed to generate access token", err)
	}
	refresh, refreshExp, err := s.sec.CreateRefreshToken(subject)
	if err != nil {
		return nil, time.Time{}, apperror.NewInternalError("failed to generate refresh token", err)
	}
	return &security.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessExp.Sub(s.now()).Seconds()),
		ExpiresAt:    accessExp,
	}, refreshExp, nil
}

// Refresh exchanges a refresh token for a new token pair. The session's
// refresh token is rotated, so the old one stops working.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*security.TokenPair, error) {
	claims, err := s.sec.VerifyToken(refreshToken, security.TokenTypeRefresh)
	if err != nil {
		return nil, apperror.NewAuthError("invalid refresh token", err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.NewAuthError("invalid refresh token subject", err)
	}

	now := s.now()
	session, err := s.store.FindSessionByRefreshHash(ctx, security.HashSensitive(refreshToken))
	if errors.Is(err, ErrNotFound) {
		s.audit.Log(security.EventSuspiciousActivity, userID.String(), map[string]interface{}{"reason": "unknown_refresh_token"})
		return nil, apperror.NewAuthError("session not found", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load session", err)
	}
	if session.UserID != userID || !session.IsActive || session.IsExpired(now) {
		return nil, apperror.NewAuthError("session is no longer active", nil)
	}

	pair, refreshExp, err := s.issueTokens(userID, session.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.RotateRefreshToken(ctx, session.ID, security.HashSensitive(pair.RefreshToken), refreshExp, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NewAuthError("session is no longer active", nil)
		}
		return nil, apperror.NewDatabaseError("failed to rotate refresh token", err)
	}
	s.audit.Log(security.EventTokenRefresh, userID.String(), map[string]interface{}{"session_id": session.ID.String()})
	return pair, nil
}

// Logout deactivates one of the user's sessions.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID uuid.UUID) error {
	ok, err := s.store.DeactivateSession(ctx, userID, sessionID)
	if err != nil {
		return apperror.NewDatabaseError("failed to end session", err)
	}
	if !ok {
		return apperror.NewNotFoundError("session not found", nil)
	}
	if err := s.store.RecordActivity(ctx, userID, "logout", nil, ClientInfo{}, &sessionID); err != nil {
		s.log.Warn("failed to record logout activity", zap.Error(err))
	}
	s.audit.Log(security.EventLogout, userID.String(), map[string]interface{}{"session_id": sessionID.String()})
	return nil
}

// ActiveSessions lists the user's unexpired active sessions, most recent first.
func (s *AuthService) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]UserSession, error) {
	sessions, err := s.store.ListActiveSessions(ctx, userID, s.now())
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list sessions", err)
	}
	if sessions == nil {
		sessions = []UserSession{}
	}
	return sessions, nil
}

// SessionActive reports whether an access token's session is still open.
func (s *AuthService) SessionActive(ctx context.Context, userID, sessionID uuid.UUID) (bool, error) {
	return s.store.IsSessionActive(ctx, userID, sessionID, s.now())
}

// CleanupExpiredSessions deactivates sessions past their expiry.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.store.DeactivateExpiredSessions(ctx, s.now())
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
