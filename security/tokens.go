package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenTypeAccess marks short-lived access tokens.
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks refresh tokens.
	TokenTypeRefresh = "refresh"

	issuer = "jarvisfi"
)

// Claims is the JWT payload. Subject carries the user id.
type Claims struct {
	TokenType string                 `json:"token_type"`
	SessionID string                 `json:"session_id,omitempty"`
	Extra     map[string]interface{} `json:"ext,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is what login and refresh hand back to clients.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"` // seconds until the access token expires
	ExpiresAt    time.Time `json:"expires_at"`
}

// CreateAccessToken signs an access token for subject. A zero ttl uses the
// configured access token duration. A "session_id" entry in extra is lifted
// into its own claim.
func (m *Manager) CreateAccessToken(subject string, extra map[string]interface{}, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = m.cfg.AccessTokenDuration
	}
	claims := m.newClaims(subject, TokenTypeAccess, ttl)
	if sid, ok := extra["session_id"].(string); ok {
		claims.SessionID = sid
		rest := make(map[string]interface{}, len(extra))
		for k, v := range extra {
			if k != "session_id" {
				rest[k] = v
			}
		}
		extra = rest
	}
	if len(extra) > 0 {
		claims.Extra = extra
	}
	return m.sign(claims)
}

// CreateRefreshToken signs a refresh token for subject. Every token carries a
// unique id so that rotation always yields a different string.
func (m *Manager) CreateRefreshToken(subject string) (string, time.Time, error) {
	return m.sign(m.newClaims(subject, TokenTypeRefresh, m.cfg.RefreshTokenDuration))
}

func (m *Manager) newClaims(subject, tokenType string, ttl time.Duration) *Claims {
	now := m.now()
	return &Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        GenerateSessionID(),
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (m *Manager) sign(claims *Claims) (string, time.Time, error) {
	token := jwt.NewWithClaims(m.method, claims)
	signed, err := token.SignedString([]byte(m.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// VerifyToken parses and validates a JWT, checking signature, expiry and type.
func (m *Manager) VerifyToken(tokenString, expectedType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", expectedType, claims.TokenType)
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
