package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store on Postgres.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

const accountColumns = `id, email, phone, username, COALESCE(password_hash, ''),
	COALESCE(first_name, ''), COALESCE(last_name, ''), user_type, preferred_language,
	status, is_active, failed_login_attempts, locked_until, created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Email, &a.Phone, &a.Username, &a.PasswordHash,
		&a.FirstName, &a.LastName, &a.UserType, &a.PreferredLanguage,
		&a.Status, &a.IsActive, &a.FailedLoginAttempts, &a.LockedUntil, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PgStore) CreateAccount(ctx context.Context, a *Account, provider string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, email, phone, username, password_hash, first_name, last_name,
			user_type, preferred_language, status, is_active)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11)
		RETURNING created_at`,
		a.ID, a.Email, a.Phone, a.Username, a.PasswordHash, a.FirstName, a.LastName,
		a.UserType, a.PreferredLanguage, a.Status, a.IsActive,
	).Scan(&a.CreatedAt)
	if err != nil {
		return err
	}

	providerUserID := a.ID.String()
	if a.Email != nil {
		providerUserID = *a.Email
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO user_auth_providers (id, user_id, provider_type, provider_user_id, is_primary)
		VALUES ($1, $2, $3, $4, TRUE)`,
		uuid.New(), a.ID, provider, providerUserID,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PgStore) FindAccountByLogin(ctx context.Context, login string) (*Account, error) {
	login = strings.TrimSpace(login)
	query := `SELECT ` + accountColumns + ` FROM users
		WHERE deleted_at IS NULL AND (lower(email) = lower($1) OR phone = $1 OR username = $1)
		LIMIT 1`
	return scanAccount(s.db.QueryRow(ctx, query, login))
}

func (s *PgStore) FindAccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return scanAccount(s.db.QueryRow(ctx, query, id))
}

func (s *PgStore) RecordFailedLogin(ctx context.Context, id uuid.UUID, attempts int, lockedUntil *time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET failed_login_attempts = $2, locked_until = $3, updated_at = NOW()
		WHERE id = $1`, id, attempts, lockedUntil)
	return err
}

func (s *PgStore) RecordSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time, ip string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET failed_login_attempts = 0, locked_until = NULL,
			last_login_at = $2, last_login_ip = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1`, id, at, ip)
	return err
}

const sessionColumns = `id, user_id, session_token, refresh_token_hash, COALESCE(ip_address, ''),
	COALESCE(user_agent, ''), device_info, is_active, expires_at, created_at, last_activity`

func scanSession(row pgx.Row) (*UserSession, error) {
	var (
		sess   UserSession
		device []byte
	)
	err := row.Scan(&sess.ID, &sess.UserID, &sess.SessionToken, &sess.RefreshHash, &sess.IPAddress,
		&sess.UserAgent, &device, &sess.IsActive, &sess.ExpiresAt, &sess.CreatedAt, &sess.LastActivity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(device) > 0 {
		if err := json.Unmarshal(device, &sess.DeviceInfo); err != nil {
			return nil, fmt.Errorf("decode device_info: %w", err)
		}
	}
	return &sess, nil
}

func (s *PgStore) CreateSession(ctx context.Context, sess *UserSession) error {
	device, err := json.Marshal(nonNilMap(sess.DeviceInfo))
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO user_sessions (id, user_id, session_token, refresh_token_hash, ip_address, user_agent,
			device_info, is_active, expires_at, created_at, last_activity)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11)`,
		sess.ID, sess.UserID, sess.SessionToken, sess.RefreshHash, sess.IPAddress, sess.UserAgent,
		device, sess.IsActive, sess.ExpiresAt, sess.CreatedAt, sess.LastActivity)
	return err
}

func (s *PgStore) FindSessionByRefreshHash(ctx context.Context, hash string) (*UserSession, error) {
	return scanSession(s.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM user_sessions WHERE refresh_token_hash = $1`, hash))
}

func (s *PgStore) RotateRefreshToken(ctx context.Context, sessionID uuid.UUID, refreshHash string, expiresAt, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE user_sessions SET refresh_token_hash = $2, expires_at = $3, last_activity = $4
		WHERE id = $1 AND is_active`, sessionID, refreshHash, expiresAt, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) DeactivateSession(ctx context.Context, userID, sessionID uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE user_sessions SET is_active = FALSE
		WHERE id = $1 AND user_id = $2 AND is_active`, sessionID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PgStore) ListActiveSessions(ctx context.Context, userID uuid.UUID, now time.Time) ([]UserSession, error) {
	rows, err := s.db.Query(ctx, `SELECT `+sessionColumns+` FROM user_sessions
		WHERE user_id = $1 AND is_active AND expires_at > $2
		ORDER BY last_activity DESC`, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []UserSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func (s *PgStore) IsSessionActive(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (bool, error) {
	var active bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM user_sessions
		WHERE id = $1 AND user_id = $2 AND is_active AND expires_at > $3)`,
		sessionID, userID, now,
	).Scan(&active)
	return active, err
}

func (s *PgStore) DeactivateExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `UPDATE user_sessions SET is_active = FALSE WHERE is_active AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) RecordActivity(ctx context.Context, userID uuid.UUID, activityType string, data map[string]interface{}, client ClientInfo, sessionID *uuid.UUID) error {
	payload, err := json.Marshal(nonNilMap(data))
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO user_activities (id, user_id, activity_type, activity_data, ip_address, user_agent, session_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)`,
		uuid.New(), userID, activityType, payload, client.IPAddress, client.UserAgent, sessionID)
	return err
}

func nonNilMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
