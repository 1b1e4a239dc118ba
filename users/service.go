// Package users manages profiles, preferences, the activity log,
// gamification, and profile export and import.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/security"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
	exportActivityLimit  = 50
)

// ActivityMeta is the request context recorded with an activity.
type ActivityMeta struct {
	IPAddress string
	UserAgent string
	SessionID *uuid.UUID
}

// UserService provides methods for user profile management.
type UserService struct {
	store      Store
	sec        *security.Manager
	appVersion string
	log        *zap.Logger
	now        func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(store Store, sec *security.Manager, appVersion string, log *zap.Logger) *UserService {
	return &UserService{
		store:      store,
		sec:        sec,
		appVersion: appVersion,
		log:        log.With(zap.String("module", "users")),
		now:        time.Now,
	}
}

func (s *UserService) getUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("user %s not found", id), nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to get user profile", err)
	}
	return u, nil
}

// GetProfile returns the user's profile with derived and masked fields.
func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*ProfileResponse, error) {
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profileResponse(u), nil
}

func (s *UserService) profileResponse(u *User) *ProfileResponse {
	resp := &ProfileResponse{User: u, FullName: u.FullName()}
	if age, ok := u.Age(s.now()); ok {
		resp.Age = &age
	}
	if u.PANEncrypted != "" {
		if pan, err := s.sec.Decrypt(u.PANEncrypted); err == nil {
			resp.PANMasked = maskTail(pan, 4)
		} else {
			s.log.Warn("failed to decrypt PAN", zap.String("user_id", u.ID.String()), zap.Error(err))
		}
	}
	if u.AadhaarEncrypted != "" {
		if aadhaar, err := s.sec.Decrypt(u.AadhaarEncrypted); err == nil {
			resp.AadhaarMasked = maskTail(aadhaar, 4)
		} else {
			s.log.Warn("failed to decrypt Aadhaar", zap.String("user_id", u.ID.String()), zap.Error(err))
		}
	}
	return resp
}

// maskTail keeps the last n characters of s and stars the rest.
func maskTail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.Repeat("*", len(s)-n) + s[len(s)-n:]
}

// UpdateProfile applies a partial update. PAN and Aadhaar numbers are
// validated, then stored encrypted.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*ProfileResponse, error) {
	if err := security.ValidateStruct(req); err != nil {
		return nil, err
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	var changed []string
	setString := func(field string, dst *string, src *string) {
		if src == nil {
			return
		}
		*dst = security.SanitizeInput(*src, 200)
		changed = append(changed, field)
	}
	setString("first_name", &u.FirstName, req.FirstName)
	setString("last_name", &u.LastName, req.LastName)
	setString("gender", &u.Gender, req.Gender)
	setString("user_type", &u.UserType, req.UserType)
	setString("preferred_language", &u.PreferredLanguage, req.PreferredLanguage)
	setString("preferred_currency", &u.PreferredCurrency, req.PreferredCurrency)
	setString("timezone", &u.Timezone, req.Timezone)
	setString("country", &u.Country, req.Country)
	setString("state", &u.State, req.State)
	setString("city", &u.City, req.City)
	setString("pincode", &u.Pincode, req.Pincode)
	setString("occupation", &u.Occupation, req.Occupation)
	setString("employer", &u.Employer, req.Employer)

	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, apperror.NewValidationError("invalid date_of_birth", err)
		}
		if dob.After(s.now()) {
			return nil, apperror.NewValidationError("date_of_birth is in the future", nil)
		}
		u.DateOfBirth = &dob
		changed = append(changed, "date_of_birth")
	}
	if req.MonthlyIncome != nil {
		income := *req.MonthlyIncome
		u.MonthlyIncome = &income
		changed = append(changed, "monthly_income")
	}
	if req.Settings != nil {
		u.Settings = req.Settings
		changed = append(changed, "settings")
	}
	if req.PrivacySettings != nil {
		u.PrivacySettings = req.PrivacySettings
		changed = append(changed, "privacy_settings")
	}
	if req.NotificationPreferences != nil {
		u.NotificationPreferences = req.NotificationPreferences
		changed = append(changed, "notification_preferences")
	}

	if req.PANNumber != nil {
		enc, err := s.sec.Encrypt(strings.ToUpper(strings.TrimSpace(*req.PANNumber)))
		if err != nil {
			return nil, apperror.NewInternalError("failed to encrypt PAN", err)
		}
		u.PANEncrypted = enc
		changed = append(changed, "pan_number")
	}
	if req.AadhaarNumber != nil {
		enc, err := s.sec.Encrypt(digitsOnly(*req.AadhaarNumber))
		if err != nil {
			return nil, apperror.NewInternalError("failed to encrypt Aadhaar", err)
		}
		u.AadhaarEncrypted = enc
		changed = append(changed, "aadhaar_number")
	}
	if (req.PANNumber != nil || req.AadhaarNumber != nil) && u.KYCStatus == "pending" {
		u.KYCStatus = "submitted"
	}

	if len(changed) == 0 {
		return s.profileResponse(u), nil
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to update user profile", err)
	}
	s.recordQuietly(ctx, id, "profile_updated", map[string]interface{}{"fields": changed}, ActivityMeta{})
	return s.profileResponse(u), nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// SetPreference stores value under (category, key).
func (s *UserService) SetPreference(ctx context.Context, userID uuid.UUID, category, key string, value interface{}) (*Preference, error) {
	category, key = strings.TrimSpace(category), strings.TrimSpace(key)
	if category == "" || key == "" || len(category) > 50 || len(key) > 100 {
		return nil, apperror.NewValidationError("category and key are required (max 50 and 100 characters)", nil)
	}
	p := Preference{Category: category, Key: key, Value: value, UpdatedAt: s.now()}
	if err := s.store.UpsertPreference(ctx, userID, p); err != nil {
		return nil, apperror.NewDatabaseError("failed to save preference", err)
	}
	return &p, nil
}

// GetPreferences lists preferences, optionally limited to one category.
func (s *UserService) GetPreferences(ctx context.Context, userID uuid.UUID, category string) ([]Preference, error) {
	prefs, err := s.store.ListPreferences(ctx, userID, category)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list preferences", err)
	}
	if prefs == nil {
		prefs = []Preference{}
	}
	return prefs, nil
}

// DeletePreference removes one preference.
func (s *UserService) DeletePreference(ctx context.Context, userID uuid.UUID, category, key string) error {
	ok, err := s.store.DeletePreference(ctx, userID, category, key)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete preference", err)
	}
	if !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("preference %s/%s not found", category, key), nil)
	}
	return nil
}

// RecordActivity appends to the user's activity log.
func (s *UserService) RecordActivity(ctx context.Context, userID uuid.UUID, activityType string, data map[string]interface{}, meta ActivityMeta) (*Activity, error) {
	a := &Activity{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      activityType,
		Data:      data,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		SessionID: meta.SessionID,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertActivity(ctx, a); err != nil {
		return nil, apperror.NewDatabaseError("failed to record activity", err)
	}
	return a, nil
}

func (s *UserService) recordQuietly(ctx context.Context, userID uuid.UUID, activityType string, data map[string]interface{}, meta ActivityMeta) {
	if _, err := s.RecordActivity(ctx, userID, activityType, data, meta); err != nil {
		s.log.Warn("failed to record activity", zap.String("user_id", userID.String()),
			zap.String("activity_type", activityType), zap.Error(err))
	}
}

// ListActivities returns the newest activities first. limit is clamped to
// 1..100 and defaults to 20.
func (s *UserService) ListActivities(ctx context.Context, userID uuid.UUID, limit int) ([]Activity, error) {
	switch {
	case limit <= 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}
	acts, err := s.store.ListActivities(ctx, userID, limit)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list activities", err)
	}
	if acts == nil {
		acts = []Activity{}
	}
	return acts, nil
}

// PurgeActivities drops activities older than retention.
func (s *UserService) PurgeActivities(ctx context.Context, retention time.Duration) (int64, error) {
	return s.store.PurgeActivities(ctx, s.now().Add(-retention))
}

// AwardPoints adds points and reports the resulting level.
func (s *UserService) AwardPoints(ctx context.Context, userID uuid.UUID, reason string, points int) (*PointsResult, error) {
	if points <= 0 {
		return nil, apperror.NewValidationError("points must be positive", nil)
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	leveledUp := u.AddPoints(points)
	if err := s.store.UpdateGamification(ctx, userID, u.Points, u.Level, u.Badges); err != nil {
		return nil, apperror.NewDatabaseError("failed to save points", err)
	}
	s.recordQuietly(ctx, userID, "points_awarded", map[string]interface{}{
		"reason": reason, "points": points, "total": u.Points, "level": u.Level,
	}, ActivityMeta{})
	if leveledUp {
		s.log.Info("user leveled up", zap.String("user_id", userID.String()), zap.Int("level", u.Level))
	}
	return &PointsResult{Points: u.Points, Level: u.Level, LeveledUp: leveledUp, Badges: nonNilStrings(u.Badges)}, nil
}

// AwardBadge grants a badge once. It reports whether the badge was new.
func (s *UserService) AwardBadge(ctx context.Context, userID uuid.UUID, badge string) (bool, error) {
	badge = strings.TrimSpace(badge)
	if badge == "" {
		return false, apperror.NewValidationError("badge is required", nil)
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if !u.AddBadge(badge) {
		return false, nil
	}
	if err := s.store.UpdateGamification(ctx, userID, u.Points, u.Level, u.Badges); err != nil {
		return false, apperror.NewDatabaseError("failed to save badge", err)
	}
	s.recordQuietly(ctx, userID, "badge_awarded", map[string]interface{}{"badge": badge}, ActivityMeta{})
	return true, nil
}

// SoftDelete marks the account deleted and closes its sessions.
func (s *UserService) SoftDelete(ctx context.Context, userID uuid.UUID) error {
	err := s.store.SoftDelete(ctx, userID, s.now())
	if errors.Is(err, ErrNotFound) {
		return apperror.NewNotFoundError("user not found", nil)
	}
	if err != nil {
		return apperror.NewDatabaseError("failed to delete user", err)
	}
	s.log.Info("user soft-deleted", zap.String("user_id", userID.String()))
	return nil
}

// Stats summarizes the user population.
func (s *UserService) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to compute user stats", err)
	}
	return st, nil
}

// FinancialProfile returns the stored financial profile, or the default one
// when none has been saved.
func (s *UserService) FinancialProfile(ctx context.Context, userID uuid.UUID) (*FinancialProfile, error) {
	p, err := s.store.GetPreference(ctx, userID, FinancialCategory, FinancialProfileKey)
	if errors.Is(err, ErrNotFound) {
		fp := DefaultFinancialProfile()
		return &fp, nil
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load financial profile", err)
	}
	fp, err := decodeFinancialProfile(p.Value)
	if err != nil {
		return nil, apperror.NewInternalError("stored financial profile is corrupt", err)
	}
	return fp, nil
}

func decodeFinancialProfile(v interface{}) (*FinancialProfile, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fp := DefaultFinancialProfile()
	if err := json.Unmarshal(raw, &fp); err != nil {
		return nil, err
	}
	return &fp, nil
}

// SaveFinancialProfile validates and stores the financial profile.
func (s *UserService) SaveFinancialProfile(ctx context.Context, userID uuid.UUID, fp FinancialProfile) (*FinancialProfile, error) {
	if err := security.ValidateStruct(fp); err != nil {
		return nil, err
	}
	if fp.MonthlyIncome < 0 {
		return nil, apperror.NewValidationError("monthly_income cannot be negative", nil)
	}
	if _, err := s.SetPreference(ctx, userID, FinancialCategory, FinancialProfileKey, fp); err != nil {
		return nil, err
	}
	return &fp, nil
}

// ResetFinancialProfile restores the default financial profile.
func (s *UserService) ResetFinancialProfile(ctx context.Context, userID uuid.UUID) (*FinancialProfile, error) {
	fp, err := s.SaveFinancialProfile(ctx, userID, DefaultFinancialProfile())
	if err != nil {
		return nil, err
	}
	s.recordQuietly(ctx, userID, "financial_profile_reset", nil, ActivityMeta{})
	return fp, nil
}

// ExportProfile builds the JSON backup of a user. Credentials and KYC
// ciphertext are never included.
func (s *UserService) ExportProfile(ctx context.Context, userID uuid.UUID) (*ProfileExport, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs, err := s.GetPreferences(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	kept := prefs[:0]
	for _, p := range prefs {
		if p.Category == FinancialCategory && p.Key == FinancialProfileKey {
			continue
		}
		kept = append(kept, p)
	}
	acts, err := s.ListActivities(ctx, userID, exportActivityLimit)
	if err != nil {
		return nil, err
	}
	fp, err := s.FinancialProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileExport{
		FormatVersion:    ExportFormatVersion,
		ExportedAt:       s.now().UTC(),
		AppVersion:       s.appVersion,
		User:             u.ToMap(false),
		Preferences:      kept,
		RecentActivities: acts,
		FinancialProfile: fp,
	}, nil
}

// ImportProfile restores a backup onto an existing user. Only profile
// fields, preferences, the financial profile and gamification are written.
// Credentials and the id are never touched.
func (s *UserService) ImportProfile(ctx context.Context, userID uuid.UUID, exp *ProfileExport) (*ImportResult, error) {
	if exp == nil {
		return nil, apperror.NewValidationError("import document is empty", nil)
	}
	if exp.FormatVersion != ExportFormatVersion {
		return nil, apperror.NewValidationError(
			fmt.Sprintf("unsupported format_version %q, expected %q", exp.FormatVersion, ExportFormatVersion), nil)
	}

	var in importableUser
	if exp.User != nil {
		raw, err := json.Marshal(exp.User)
		if err != nil {
			return nil, apperror.NewValidationError("invalid user section", err)
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, apperror.NewValidationError("invalid user section", err)
		}
		if err := security.ValidateStruct(in); err != nil {
			return nil, err
		}
	}

	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{UpdatedFields: []string{}}
	apply := func(field string, dst *string, src *string) {
		if src != nil {
			*dst = security.SanitizeInput(*src, 200)
			res.UpdatedFields = append(res.UpdatedFields, field)
		}
	}
	apply("first_name", &u.FirstName, in.FirstName)
	apply("last_name", &u.LastName, in.LastName)
	apply("gender", &u.Gender, in.Gender)
	apply("user_type", &u.UserType, in.UserType)
	apply("preferred_language", &u.PreferredLanguage, in.PreferredLanguage)
	apply("preferred_currency", &u.PreferredCurrency, in.PreferredCurrency)
	apply("timezone", &u.Timezone, in.Timezone)
	apply("country", &u.Country, in.Country)
	apply("state", &u.State, in.State)
	apply("city", &u.City, in.City)
	apply("pincode", &u.Pincode, in.Pincode)
	apply("occupation", &u.Occupation, in.Occupation)
	apply("employer", &u.Employer, in.Employer)
	if in.MonthlyIncome != nil {
		income := *in.MonthlyIncome
		u.MonthlyIncome = &income
		res.UpdatedFields = append(res.UpdatedFields, "monthly_income")
	}
	if in.Settings != nil {
		u.Settings = in.Settings
		res.UpdatedFields = append(res.UpdatedFields, "settings")
	}
	if in.PrivacySettings != nil {
		u.PrivacySettings = in.PrivacySettings
		res.UpdatedFields = append(res.UpdatedFields, "privacy_settings")
	}
	if in.NotificationPreferences != nil {
		u.NotificationPreferences = in.NotificationPreferences
		res.UpdatedFields = append(res.UpdatedFields, "notification_preferences")
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, apperror.NewDatabaseError("failed to import profile", err)
	}

	if in.Points != nil || in.Level != nil || in.Badges != nil {
		if in.Points != nil {
			u.Points = *in.Points
		}
		if in.Level != nil {
			u.Level = *in.Level
		}
		if in.Badges != nil {
			u.Badges = in.Badges
		}
		if err := s.store.UpdateGamification(ctx, userID, u.Points, u.Level, u.Badges); err != nil {
			return nil, apperror.NewDatabaseError("failed to import gamification", err)
		}
		res.UpdatedFields = append(res.UpdatedFields, "gamification")
	}

	for _, p := range exp.Preferences {
		if p.Category == FinancialCategory && p.Key == FinancialProfileKey {
			continue
		}
		if _, err := s.SetPreference(ctx, userID, p.Category, p.Key, p.Value); err != nil {
			return nil, err
		}
		res.PreferencesImported++
	}
	if exp.FinancialProfile != nil {
		if _, err := s.SaveFinancialProfile(ctx, userID, *exp.FinancialProfile); err != nil {
			return nil, err
		}
		res.FinancialProfile = true
	}

	s.recordQuietly(ctx, userID, "profile_imported", map[string]interface{}{
		"source_version": exp.AppVersion, "fields": len(res.UpdatedFields), "preferences": res.PreferencesImported,
	}, ActivityMeta{})
	return res, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
