package security

import (
	"encoding/base64"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:            "test-secret",
		JWTAlgorithm:         "HS256",
		AccessTokenDuration:  30 * time.Minute,
		RefreshTokenDuration: 30 * 24 * time.Hour,
		EncryptionKey:        []byte("0123456789abcdef0123456789abcdef"),
		BcryptCost:           4,
	})
	require.NoError(t, err)
	return m
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	_, err := NewManager(config.AuthConfig{JWTAlgorithm: "RS256", EncryptionKey: make([]byte, 32)})
	assert.Error(t, err)
	_, err = NewManager(config.AuthConfig{JWTAlgorithm: "HS256", EncryptionKey: []byte("short")})
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	m := newTestManager(t)
	hash, err := m.HashPassword("S3cure!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "S3cure!pass", hash)
	assert.True(t, m.VerifyPassword("S3cure!pass", hash))
	assert.False(t, m.VerifyPassword("wrong", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	strong := ValidatePasswordStrength("S3cure!pass")
	assert.True(t, strong.Valid)
	assert.Equal(t, 6, strong.Score)
	assert.Equal(t, "strong", strong.Strength)
	assert.Empty(t, strong.Issues)

	medium := ValidatePasswordStrength("Secure1pass")
	assert.False(t, medium.Valid)
	assert.Equal(t, 5, medium.Score)
	assert.Equal(t, "medium", medium.Strength)
	assert.Contains(t, medium.Issues, "Password must contain at least one special character")

	common := ValidatePasswordStrength("PASSWORD")
	assert.False(t, common.Valid)
	assert.Contains(t, common.Issues, "Password is too common")
	assert.Equal(t, "weak", common.Strength)
}

func TestTokens(t *testing.T) {
	m := newTestManager(t)

	access, exp, err := m.CreateAccessToken("user-1", map[string]interface{}{"session_id": "s-1", "user_type": "farmer"}, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp, 5*time.Second)

	claims, err := m.VerifyToken(access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "s-1", claims.SessionID)
	assert.Equal(t, "farmer", claims.Extra["user_type"])

	_, err = m.VerifyToken(access, TokenTypeRefresh)
	assert.ErrorContains(t, err, "invalid token type")

	refresh, _, err := m.CreateRefreshToken("user-1")
	require.NoError(t, err)
	other, _, err := m.CreateRefreshToken("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, refresh, other)
	_, err = m.VerifyToken(refresh, TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestVerifyTokenRejectsExpiredAndForeign(t *testing.T) {
	m := newTestManager(t)
	token, _, err := m.CreateAccessToken("user-1", nil, time.Minute)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.VerifyToken(token, TokenTypeAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	m.now = time.Now
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		TokenType:        TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x", Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := forged.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = m.VerifyToken(signed, TokenTypeAccess)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{TokenType: TokenTypeAccess})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.VerifyToken(unsigned, TokenTypeAccess)
	assert.Error(t, err)
}

func TestEncryptDecrypt(t *testing.T) {
	m := newTestManager(t)
	a, err := m.Encrypt("ABCDE1234F")
	require.NoError(t, err)
	b, err := m.Encrypt("ABCDE1234F")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	plain, err := m.Decrypt(a)
	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", plain)

	raw, err := base64.URLEncoding.DecodeString(a)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 1
	_, err = m.Decrypt(base64.URLEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = m.Decrypt("not base64!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestHashSensitive(t *testing.T) {
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", HashSensitive("hello"))
}

func TestAPIKeysAndTokens(t *testing.T) {
	key := GenerateAPIKey("")
	assert.True(t, strings.HasPrefix(key, "jf_"))
	assert.Len(t, key, 3+43)
	assert.True(t, ValidateAPIKeyFormat(key))
	assert.True(t, ValidateAPIKeyFormat(GenerateAPIKey("admin")))
	assert.False(t, ValidateAPIKeyFormat("jf_short"))

	assert.Len(t, GenerateSessionID(), 43)
	csrf := GenerateCSRFToken()
	assert.True(t, VerifyCSRFToken(csrf, csrf))
	assert.False(t, VerifyCSRFToken(csrf, GenerateCSRFToken()))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", SanitizeInput(`  <script>alert(1)</script> `, 0))
	assert.Equal(t, "சேமி", SanitizeInput("சேமிப்பு", 4))
	assert.Len(t, []rune(SanitizeInput(strings.Repeat("a", 2000), 0)), DefaultMaxInputLength)
}

func TestParseFinite(t *testing.T) {
	v, err := ParseFinite("amount", " 12.5 ")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	for _, raw := range []string{"", "abc", "NaN", "nan", "Inf", "+Inf", "-Inf", "1e400"} {
		_, err := ParseFinite("amount", raw)
		assert.True(t, apperror.IsValidationError(err), raw)
	}
	assert.True(t, Finite(0))
	assert.False(t, Finite(math.NaN()))
	assert.False(t, Finite(math.Inf(-1)))
}

func TestValidators(t *testing.T) {
	m := newTestManager(t)
	assert.True(t, m.ValidateEmail("asha@example.in"))
	assert.False(t, m.ValidateEmail("asha@"))

	for _, ok := range []string{"9876543210", "+91 98765-43210", "09876543210", "(91)9876543210"} {
		assert.True(t, ValidatePhone(ok), ok)
	}
	for _, bad := range []string{"5876543210", "98765", "919876"} {
		assert.False(t, ValidatePhone(bad), bad)
	}

	assert.True(t, ValidatePAN("abcde1234f"))
	assert.False(t, ValidatePAN("ABCD12345F"))

	assert.True(t, ValidateAadhaar("2341 2341 2346"))
	assert.True(t, ValidateAadhaar("499180000002"))
	assert.False(t, ValidateAadhaar("234123412345"), "bad checksum")
	assert.False(t, ValidateAadhaar("123456789010"), "leading 1")
	assert.False(t, ValidateAadhaar("23412341234"), "too short")
}

func TestSecureHeaders(t *testing.T) {
	h := SecureHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Len(t, Headers(), 7)
}

func TestAuditLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	audit := NewAuditLogger(zap.New(core))

	audit.Log(EventAccountLocked, "user-1", map[string]interface{}{"attempts": 5})
	audit.Log(EventLogout, "user-1", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "security_audit", entries[0].LoggerName)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "account_locked", entries[0].ContextMap()["event_type"])
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
}

func TestValidateStruct(t *testing.T) {
	type req struct {
		Email  string  `json:"email" validate:"required,email"`
		Phone  string  `json:"phone" validate:"omitempty,indian_phone"`
		PAN    string  `json:"pan" validate:"omitempty,pan"`
		Amount float64 `json:"amount" validate:"gt=0"`
	}

	assert.NoError(t, ValidateStruct(req{Email: "a@b.in", Phone: "9876543210", PAN: "ABCDE1234F", Amount: 1}))

	err := ValidateStruct(req{Email: "bad", Phone: "123", Amount: 0})
	require.Error(t, err)
	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ValidationError, appErr.Type)
	assert.Equal(t, "email", appErr.Details["email"])
	assert.Equal(t, "indian_phone", appErr.Details["phone"])
	assert.Equal(t, "gt=0", appErr.Details["amount"])
	assert.NotContains(t, appErr.Details, "pan")
}
