package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/user/jarvisfi-go/security"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email             string `json:"email" validate:"required,email,max=255" example:"asha@example.in"`
	Phone             string `json:"phone,omitempty" validate:"omitempty,indian_phone" example:"9876543210"`
	Username          string `json:"username,omitempty" validate:"omitempty,min=3,max=50,alphanum" example:"asha"`
	Password          string `json:"password" validate:"required,max=128" example:"S3cure!pass"`
	FirstName         string `json:"first_name,omitempty" validate:"max=100"`
	LastName          string `json:"last_name,omitempty" validate:"max=100"`
	UserType          string `json:"user_type,omitempty" validate:"omitempty,oneof=student professional farmer senior_citizen beginner intermediate expert"`
	PreferredLanguage string `json:"preferred_language,omitempty" validate:"omitempty,oneof=en ta hi te bn gu kn ml mr or pa ur"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=255" example:"asha@example.in"` // email, phone or username
	Password string `json:"password" validate:"required,max=128" example:"S3cure!pass"`
}

// RefreshTokenRequest represents the token refresh request payload
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// PasswordStrengthRequest asks for a password strength report.
type PasswordStrengthRequest struct {
	Password string `json:"password" validate:"required,max=128"`
}

// AccountResponse is the public view of a newly registered or logged-in user.
type AccountResponse struct {
	ID                uuid.UUID `json:"id"`
	Email             *string   `json:"email,omitempty"`
	Phone             *string   `json:"phone,omitempty"`
	Username          *string   `json:"username,omitempty"`
	FirstName         string    `json:"first_name,omitempty"`
	LastName          string    `json:"last_name,omitempty"`
	UserType          string    `json:"user_type"`
	PreferredLanguage string    `json:"preferred_language"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func newAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:                a.ID,
		Email:             a.Email,
		Phone:             a.Phone,
		Username:          a.Username,
		FirstName:         a.FirstName,
		LastName:          a.LastName,
		UserType:          a.UserType,
		PreferredLanguage: a.PreferredLanguage,
		Status:            a.Status,
		CreatedAt:         a.CreatedAt,
	}
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	security.TokenPair
	SessionID uuid.UUID       `json:"session_id"`
	User      AccountResponse `json:"user"`
}
