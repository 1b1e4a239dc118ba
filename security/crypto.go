package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"regexp"
)

// ErrInvalidCiphertext is returned when a token cannot be decrypted.
var ErrInvalidCiphertext = errors.New("invalid encrypted data")

var apiKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+_[a-zA-Z0-9_-]{43}$`)

// Encrypt seals plaintext with XChaCha20-Poly1305 under a random nonce and
// returns URL-safe base64 of nonce||ciphertext.
func (m *Manager) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, m.aead.NonceSize(), m.aead.NonceSize()+len(plaintext)+m.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := m.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (m *Manager) Decrypt(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil || len(raw) < m.aead.NonceSize()+m.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertext := raw[:m.aead.NonceSize()], raw[m.aead.NonceSize():]
	plain, err := m.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}

// HashSensitive returns the SHA-256 hex digest of s.
func HashSensitive(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// randomToken returns 32 random bytes as 43 URL-safe characters.
func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("security: crypto/rand failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// GenerateAPIKey returns prefix + "_" + 43 random URL-safe characters.
// An empty prefix means "jf".
func GenerateAPIKey(prefix string) string {
	if prefix == "" {
		prefix = "jf"
	}
	return prefix + "_" + randomToken()
}

// ValidateAPIKeyFormat reports whether key looks like a GenerateAPIKey result.
func ValidateAPIKeyFormat(key string) bool {
	return apiKeyPattern.MatchString(key)
}

// GenerateSessionID returns a random 43-character session identifier.
func GenerateSessionID() string { return randomToken() }

// GenerateCSRFToken returns a random 43-character CSRF token.
func GenerateCSRFToken() string { return randomToken() }

// VerifyCSRFToken compares two tokens in constant time.
func VerifyCSRFToken(token, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

// ConstantTimeEqual compares two secrets in constant time.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
