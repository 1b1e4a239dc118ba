// Package security groups the cryptographic and validation helpers used by
// the auth and users services: password hashing and strength checks, JWTs,
// field encryption, API keys, input sanitizing, Indian identity validators,
// HTTP security headers and the audit log.
package security

import (
	"crypto/cipher"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/user/jarvisfi-go/config"
)

// Manager holds the keys and settings the helpers need.
type Manager struct {
	cfg      config.AuthConfig
	method   jwt.SigningMethod
	aead     cipher.AEAD
	validate *validator.Validate
	now      func() time.Time
}

// NewManager builds a Manager from the auth configuration. The encryption key
// must be exactly 32 bytes.
func NewManager(cfg config.AuthConfig) (*Manager, error) {
	method := jwt.GetSigningMethod(cfg.JWTAlgorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported JWT algorithm %q", cfg.JWTAlgorithm)
	}
	aead, err := chacha20poly1305.NewX(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	return &Manager{
		cfg:      cfg,
		method:   method,
		aead:     aead,
		validate: structValidator,
		now:      time.Now,
	}, nil
}

// Config returns the auth settings the manager was built with.
func (m *Manager) Config() config.AuthConfig { return m.cfg }
