package security

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/user/jarvisfi-go/apperror"
)

// DefaultMaxInputLength bounds SanitizeInput when no limit is given.
const DefaultMaxInputLength = 1000

var (
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[6-9]\d{9}$`),
		regexp.MustCompile(`^91[6-9]\d{9}$`),
		regexp.MustCompile(`^0[6-9]\d{9}$`),
	}
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", "+", "", "(", "", ")", "")
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	aadhaarStrip = strings.NewReplacer(" ", "", "-", "")
	htmlChars    = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "")
)

// Finite reports whether v is neither NaN nor an infinity.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ParseFinite parses raw as a float for the named query field, rejecting
// malformed input, NaN and infinities.
func ParseFinite(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, apperror.NewValidationError(field+" must be a number", err).
			WithDetails(map[string]string{field: "numeric"})
	}
	if !Finite(v) {
		return 0, apperror.NewValidationError(field+" must be a finite number", nil).
			WithDetails(map[string]string{field: "finite"})
	}
	return v, nil
}

// SanitizeInput strips < > " ' from s, truncates it to maxLen runes and trims
// surrounding space. maxLen <= 0 means DefaultMaxInputLength.
func SanitizeInput(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxInputLength
	}
	s = htmlChars.Replace(s)
	if r := []rune(s); len(r) > maxLen {
		s = string(r[:maxLen])
	}
	return strings.TrimSpace(s)
}

// ValidateEmail reports whether email is a syntactically valid address.
func (m *Manager) ValidateEmail(email string) bool {
	return m.validate.Var(email, "required,email") == nil
}

// ValidatePhone accepts Indian mobile numbers with optional 91 or 0 prefix.
func ValidatePhone(phone string) bool {
	digits := phoneStrip.Replace(phone)
	for _, p := range phonePatterns {
		if p.MatchString(digits) {
			return true
		}
	}
	return false
}

// ValidatePAN checks the AAAAA9999A PAN format, case-insensitively.
func ValidatePAN(pan string) bool {
	return panPattern.MatchString(strings.ToUpper(strings.TrimSpace(pan)))
}

// ValidateAadhaar checks a 12-digit Aadhaar number: no leading 0 or 1 and a
// valid Verhoeff check digit. Spaces and dashes are ignored.
func ValidateAadhaar(aadhaar string) bool {
	digits := aadhaarStrip.Replace(aadhaar)
	if len(digits) != 12 || digits[0] == '0' || digits[0] == '1' {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return verhoeffValid(digits)
}

var (
	verhoeffD = [10][10]int{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
		{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
		{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
		{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
		{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
		{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
		{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
		{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
		{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
	}
	verhoeffP = [8][10]int{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 5, 7, 6, 2, 8, 3, 0, 9, 4},
		{5, 8, 0, 3, 7, 9, 6, 1, 4, 2},
		{8, 9, 1, 6, 0, 4, 3, 5, 2, 7},
		{9, 4, 5, 3, 1, 2, 6, 8, 7, 0},
		{4, 2, 8, 6, 5, 7, 3, 9, 0, 1},
		{2, 7, 9, 3, 8, 0, 6, 4, 1, 5},
		{7, 0, 4, 6, 9, 1, 3, 2, 5, 8},
	}
)

func verhoeffValid(digits string) bool {
	c := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[len(digits)-1-i] - '0')
		c = verhoeffD[c][verhoeffP[i%8][d]]
	}
	return c == 0
}
