package users

import (
	"context"
	"encoding/json"
	"errors"
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

const userColumns = `id, email, phone, username, COALESCE(password_hash, ''), is_active, is_verified,
	COALESCE(first_name, ''), COALESCE(last_name, ''), date_of_birth, COALESCE(gender, ''),
	user_type, status, preferred_language, preferred_currency, timezone, country,
	COALESCE(state, ''), COALESCE(city, ''), COALESCE(pincode, ''),
	monthly_income::float8, COALESCE(occupation, ''), COALESCE(employer, ''),
	COALESCE(pan_number_encrypted, ''), COALESCE(aadhaar_number_encrypted, ''), kyc_status,
	two_factor_enabled, failed_login_attempts, locked_until, last_login_at, COALESCE(last_login_ip, ''),
	settings, privacy_settings, notification_preferences, points, level, badges,
	created_at, updated_at, deleted_at`

func (s *PgStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var (
		u                           User
		settings, privacy, notifies []byte
		badges                      []byte
	)
	err := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id).Scan(
		&u.ID, &u.Email, &u.Phone, &u.Username, &u.PasswordHash, &u.IsActive, &u.IsVerified,
		&u.FirstName, &u.LastName, &u.DateOfBirth, &u.Gender,
		&u.UserType, &u.Status, &u.PreferredLanguage, &u.PreferredCurrency, &u.Timezone, &u.Country,
		&u.State, &u.City, &u.Pincode,
		&u.MonthlyIncome, &u.Occupation, &u.Employer,
		&u.PANEncrypted, &u.AadhaarEncrypted, &u.KYCStatus,
		&u.TwoFactorEnabled, &u.FailedLoginAttempts, &u.LockedUntil, &u.LastLoginAt, &u.LastLoginIP,
		&settings, &privacy, &notifies, &u.Points, &u.Level, &badges,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw []byte
		dst interface{}
	}{
		{settings, &u.Settings},
		{privacy, &u.PrivacySettings},
		{notifies, &u.NotificationPreferences},
		{badges, &u.Badges},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

func (s *PgStore) UpdateUser(ctx context.Context, u *User) error {
	settings, err := json.Marshal(nonNilMap(u.Settings))
	if err != nil {
		return err
	}
	privacy, err := json.Marshal(nonNilMap(u.PrivacySettings))
	if err != nil {
		return err
	}
	notifies, err := json.Marshal(nonNilMap(u.NotificationPreferences))
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET
			first_name = NULLIF($2, ''), last_name = NULLIF($3, ''), date_of_birth = $4, gender = NULLIF($5, ''),
			user_type = $6, preferred_language = $7, preferred_currency = $8, timezone = $9, country = $10,
			state = NULLIF($11, ''), city = NULLIF($12, ''), pincode = NULLIF($13, ''),
			monthly_income = $14, occupation = NULLIF($15, ''), employer = NULLIF($16, ''),
			pan_number_encrypted = NULLIF($17, ''), aadhaar_number_encrypted = NULLIF($18, ''), kyc_status = $19,
			settings = $20, privacy_settings = $21, notification_preferences = $22,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		u.ID, u.FirstName, u.LastName, u.DateOfBirth, u.Gender,
		u.UserType, u.PreferredLanguage, u.PreferredCurrency, u.Timezone, u.Country,
		u.State, u.City, u.Pincode,
		u.MonthlyIncome, u.Occupation, u.Employer,
		u.PANEncrypted, u.AadhaarEncrypted, u.KYCStatus,
		settings, privacy, notifies,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) UpdateGamification(ctx context.Context, id uuid.UUID, points, level int, badges []string) error {
	if badges == nil {
		badges = []string{}
	}
	raw, err := json.Marshal(badges)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET points = $2, level = $3, badges = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id, points, level, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE users SET deleted_at = $2, status = 'deleted', is_active = FALSE, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `UPDATE user_sessions SET is_active = FALSE WHERE user_id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PgStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByType: map[string]int64{}}
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE is_verified)
		FROM users WHERE deleted_at IS NULL`).Scan(&st.Total, &st.Active, &st.Verified)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `SELECT user_type, COUNT(*) FROM users WHERE deleted_at IS NULL GROUP BY user_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ string
			n   int64
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		st.ByType[typ] = n
	}
	return st, rows.Err()
}

func (s *PgStore) UpsertPreference(ctx context.Context, userID uuid.UUID, p Preference) error {
	raw, err := json.Marshal(p.Value)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO user_preferences (id, user_id, category, key, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, category, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		uuid.New(), userID, p.Category, p.Key, raw)
	return err
}

func scanPreference(row pgx.Row) (*Preference, error) {
	var (
		p   Preference
		raw []byte
	)
	if err := row.Scan(&p.Category, &p.Key, &raw, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &p.Value); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PgStore) ListPreferences(ctx context.Context, userID uuid.UUID, category string) ([]Preference, error) {
	rows, err := s.db.Query(ctx, `
		SELECT category, key, value, updated_at FROM user_preferences
		WHERE user_id = $1 AND ($2::text = '' OR category = $2)
		ORDER BY category, key`, userID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []Preference
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, *p)
	}
	return prefs, rows.Err()
}

func (s *PgStore) GetPreference(ctx context.Context, userID uuid.UUID, category, key string) (*Preference, error) {
	p, err := scanPreference(s.db.QueryRow(ctx, `
		SELECT category, key, value, updated_at FROM user_preferences
		WHERE user_id = $1 AND category = $2 AND key = $3`, userID, category, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *PgStore) DeletePreference(ctx context.Context, userID uuid.UUID, category, key string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM user_preferences WHERE user_id = $1 AND category = $2 AND key = $3`,
		userID, category, key)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PgStore) InsertActivity(ctx context.Context, a *Activity) error {
	raw, err := json.Marshal(nonNilMap(a.Data))
	if err != nil {
		return err
	}
	return s.db.QueryRow(ctx, `
		INSERT INTO user_activities (id, user_id, activity_type, activity_data, ip_address, user_agent, session_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		RETURNING created_at`,
		a.ID, a.UserID, a.Type, raw, a.IPAddress, a.UserAgent, a.SessionID,
	).Scan(&a.CreatedAt)
}

func (s *PgStore) ListActivities(ctx context.Context, userID uuid.UUID, limit int) ([]Activity, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, activity_type, activity_data, COALESCE(ip_address, ''), COALESCE(user_agent, ''),
			session_id, created_at
		FROM user_activities WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var (
			a   Activity
			raw []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &raw, &a.IPAddress, &a.UserAgent, &a.SessionID, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &a.Data); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PgStore) PurgeActivities(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM user_activities WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nonNilMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
