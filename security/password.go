package security

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const specialChars = `!@#$%^&*(),.?":{}|<>`

var commonPasswords = map[string]bool{
	"password":    true,
	"123456":      true,
	"password123": true,
	"admin":       true,
	"qwerty":      true,
}

// PasswordStrength is the outcome of ValidatePasswordStrength.
type PasswordStrength struct {
	Valid    bool     `json:"valid"`
	Score    int      `json:"score"`
	MaxScore int      `json:"max_score"`
	Issues   []string `json:"issues"`
	Strength string   `json:"strength"` // weak, medium, strong
}

// HashPassword hashes p with bcrypt at the configured cost.
func (m *Manager) HashPassword(p string) (string, error) {
	cost := m.cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether p matches the bcrypt hash.
func (m *Manager) VerifyPassword(p, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil
}

// ValidatePasswordStrength scores p against six checks.
func ValidatePasswordStrength(p string) PasswordStrength {
	res := PasswordStrength{MaxScore: 6, Issues: []string{}}
	check := func(ok bool, issue string) {
		if ok {
			res.Score++
			return
		}
		res.Issues = append(res.Issues, issue)
	}

	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
		if strings.ContainsRune(specialChars, r) {
			special = true
		}
	}

	check(len([]rune(p)) >= 8, "Password must be at least 8 characters long")
	check(upper, "Password must contain at least one uppercase letter")
	check(lower, "Password must contain at least one lowercase letter")
	check(digit, "Password must contain at least one number")
	check(special, "Password must contain at least one special character")
	check(!commonPasswords[strings.ToLower(p)], "Password is too common")

	res.Valid = len(res.Issues) == 0
	switch {
	case res.Score >= 6:
		res.Strength = "strong"
	case res.Score >= 4:
		res.Strength = "medium"
	default:
		res.Strength = "weak"
	}
	return res
}
