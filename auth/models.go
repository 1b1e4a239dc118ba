package auth

import (
	"time"

	"github.com/google/uuid"
)

// Provider types recorded in user_auth_providers.
const (
	ProviderLocal     = "local"
	ProviderGoogle    = "google"
	ProviderFacebook  = "facebook"
	ProviderAadhaar   = "aadhaar"
	ProviderBiometric = "biometric"
)

// Account is the credential view of a users row.
type Account struct {
	ID                  uuid.UUID
	Email               *string
	Phone               *string
	Username            *string
	PasswordHash        string
	FirstName           string
	LastName            string
	UserType            string
	PreferredLanguage   string
	Status              string
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	CreatedAt           time.Time
}

// IsLocked reports whether the account is locked at now.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// UserSession is one login on one device.
type UserSession struct {
	ID           uuid.UUID              `json:"id"`
	UserID       uuid.UUID              `json:"user_id"`
	SessionToken string                 `json:"-"`
	RefreshHash  string                 `json:"-"` // sha256 of the current refresh token
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	DeviceInfo   map[string]interface{} `json:"device_info,omitempty"`
	IsActive     bool                   `json:"is_active"`
	ExpiresAt    time.Time              `json:"expires_at"`
	CreatedAt    time.Time              `json:"created_at"`
	LastActivity time.Time              `json:"last_activity"`
}

// IsExpired reports whether the session has expired at now.
func (s *UserSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// ClientInfo describes the client making an authenticated request.
type ClientInfo struct {
	IPAddress  string
	UserAgent  string
	DeviceInfo map[string]interface{}
}
