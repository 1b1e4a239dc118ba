package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User types.
const (
	TypeStudent       = "student"
	TypeProfessional  = "professional"
	TypeFarmer        = "farmer"
	TypeSeniorCitizen = "senior_citizen"
	TypeBeginner      = "beginner"
	TypeIntermediate  = "intermediate"
	TypeExpert        = "expert"
)

// Account statuses.
const (
	StatusActive              = "active"
	StatusInactive            = "inactive"
	StatusSuspended           = "suspended"
	StatusPendingVerification = "pending_verification"
	StatusDeleted             = "deleted"
)

// pointsPerLevel is the points needed per level: reaching level n+1 takes
// n*pointsPerLevel points in total.
const pointsPerLevel = 100

// User is a users row. Encrypted KYC fields hold ciphertext.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Username     *string   `json:"username,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`

	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	UserType    string     `json:"user_type"`
	Status      string     `json:"status"`

	PreferredLanguage string `json:"preferred_language"`
	PreferredCurrency string `json:"preferred_currency"`
	Timezone          string `json:"timezone"`
	Country           string `json:"country"`
	State             string `json:"state,omitempty"`
	City              string `json:"city,omitempty"`
	Pincode           string `json:"pincode,omitempty"`

	MonthlyIncome *float64 `json:"monthly_income,omitempty"`
	Occupation    string   `json:"occupation,omitempty"`
	Employer      string   `json:"employer,omitempty"`

	PANEncrypted     string `json:"-"`
	AadhaarEncrypted string `json:"-"`
	KYCStatus        string `json:"kyc_status"`

	TwoFactorEnabled    bool       `json:"two_factor_enabled"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP         string     `json:"-"`

	Settings                map[string]interface{} `json:"settings"`
	PrivacySettings         map[string]interface{} `json:"privacy_settings"`
	NotificationPreferences map[string]interface{} `json:"notification_preferences"`

	Points int      `json:"points"`
	Level  int      `json:"level"`
	Badges []string `json:"badges"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Age returns the age in whole years at now, or false when the date of
// birth is unknown.
func (u *User) Age(now time.Time) (int, bool) {
	if u.DateOfBirth == nil {
		return 0, false
	}
	dob := *u.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age, true
}

// IsLocked reports whether a login lockout is in force at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// AddPoints adds n points and raises the level while points reach
// level*100. It reports whether the level changed.
func (u *User) AddPoints(n int) bool {
	if u.Level < 1 {
		u.Level = 1
	}
	u.Points += n
	before := u.Level
	for u.Points >= u.Level*pointsPerLevel {
		u.Level++
	}
	return u.Level != before
}

// AddBadge appends b unless the user already has it.
func (u *User) AddBadge(b string) bool {
	for _, have := range u.Badges {
		if have == b {
			return false
		}
	}
	u.Badges = append(u.Badges, b)
	return true
}

// ToMap renders the user for export. Sensitive fields are only included on
// request, and the password hash never is.
func (u *User) ToMap(includeSensitive bool) map[string]interface{} {
	m := map[string]interface{}{
		"id":                       u.ID.String(),
		"email":                    deref(u.Email),
		"phone":                    deref(u.Phone),
		"username":                 deref(u.Username),
		"first_name":               u.FirstName,
		"last_name":                u.LastName,
		"full_name":                u.FullName(),
		"gender":                   u.Gender,
		"user_type":                u.UserType,
		"status":                   u.Status,
		"is_active":                u.IsActive,
		"is_verified":              u.IsVerified,
		"preferred_language":       u.PreferredLanguage,
		"preferred_currency":       u.PreferredCurrency,
		"timezone":                 u.Timezone,
		"country":                  u.Country,
		"state":                    u.State,
		"city":                     u.City,
		"pincode":                  u.Pincode,
		"occupation":               u.Occupation,
		"employer":                 u.Employer,
		"kyc_status":               u.KYCStatus,
		"settings":                 u.Settings,
		"privacy_settings":         u.PrivacySettings,
		"notification_preferences": u.NotificationPreferences,
		"points":                   u.Points,
		"level":                    u.Level,
		"badges":                   u.Badges,
		"created_at":               u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.DateOfBirth != nil {
		m["date_of_birth"] = u.DateOfBirth.Format("2006-01-02")
	}
	if u.MonthlyIncome != nil {
		m["monthly_income"] = *u.MonthlyIncome
	}
	if includeSensitive {
		m["two_factor_enabled"] = u.TwoFactorEnabled
		m["failed_login_attempts"] = u.FailedLoginAttempts
		m["last_login_ip"] = u.LastLoginIP
		if u.LastLoginAt != nil {
			m["last_login_at"] = u.LastLoginAt.UTC().Format(time.RFC3339)
		}
	}
	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// AuthProvider links a user to a way of signing in.
type AuthProvider struct {
	ID             uuid.UUID              `json:"id"`
	UserID         uuid.UUID              `json:"user_id"`
	ProviderType   string                 `json:"provider_type"`
	ProviderUserID string                 `json:"provider_user_id,omitempty"`
	ProviderData   map[string]interface{} `json:"provider_data,omitempty"`
	IsPrimary      bool                   `json:"is_primary"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Preference is one (category, key) setting with a JSON value.
type Preference struct {
	Category  string      `json:"category"`
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Activity is one entry of a user's activity log.
type Activity struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"user_id"`
	Type      string                 `json:"activity_type"`
	Data      map[string]interface{} `json:"activity_data,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	SessionID *uuid.UUID             `json:"session_id,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Financial profile preference location.
const (
	FinancialCategory   = "finance"
	FinancialProfileKey = "financial_profile"
)

// FinancialProfile is the user's working financial picture, stored as a
// single preference document.
type FinancialProfile struct {
	MonthlyIncome        float64            `json:"monthly_income"`
	MonthlyExpenses      map[string]float64 `json:"monthly_expenses"`
	RiskTolerance        string             `json:"risk_tolerance" validate:"oneof=conservative moderate aggressive"`
	InvestmentExperience string             `json:"investment_experience"`
	FinancialGoals       []string           `json:"financial_goals"`
	CurrentSavings       float64            `json:"current_savings"`
	CurrentInvestments   float64            `json:"current_investments"`
	EmergencyFund        float64            `json:"emergency_fund"`
	Points               int                `json:"points"`
	Level                int                `json:"level"`
	Badges               []string           `json:"badges"`
	StreakDays           int                `json:"streak_days"`
}

// DefaultFinancialProfile is the state a profile resets to.
func DefaultFinancialProfile() FinancialProfile {
	return FinancialProfile{
		MonthlyIncome:        30000,
		MonthlyExpenses:      map[string]float64{},
		RiskTolerance:        "moderate",
		InvestmentExperience: "beginner",
		FinancialGoals:       []string{},
		Level:                1,
		Badges:               []string{},
	}
}

// TotalExpenses sums the expense categories.
func (p FinancialProfile) TotalExpenses() float64 {
	var total float64
	for _, v := range p.MonthlyExpenses {
		total += v
	}
	return total
}
