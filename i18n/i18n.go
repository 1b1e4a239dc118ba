// Package i18n detects the language of a message, translates UI strings and
// financial terms, and extracts financial concepts from Tamil queries.
package i18n

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Language codes with translation tables.
const (
	English = "en"
	Tamil   = "ta"
	Hindi   = "hi"
	Telugu  = "te"
)

var scripts = []struct {
	lang  string
	table *unicode.RangeTable
}{
	{Tamil, &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0B80, Hi: 0x0BFF, Stride: 1}}}},
	{Hindi, &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0900, Hi: 0x097F, Stride: 1}}}},
	{Telugu, &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0C00, Hi: 0x0C7F, Stride: 1}}}},
}

// DetectLanguage returns the language whose script has the most characters
// in text, or English when none of them appear. Ties go to the earlier of
// ta, hi and te.
func DetectLanguage(text string) string {
	counts := make([]int, len(scripts))
	for _, r := range text {
		for i, s := range scripts {
			if unicode.Is(s.table, r) {
				counts[i]++
				break
			}
		}
	}
	best, bestN := English, 0
	for i, n := range counts {
		if n > bestN {
			best, bestN = scripts[i].lang, n
		}
	}
	return best
}

var translations = map[string]map[string]string{
	English: {
		"welcome":            "Welcome to JarvisFi, your personal finance assistant",
		"chat":               "Chat",
		"budget_analysis":    "Budget Analysis",
		"smart_alerts":       "Smart Alerts",
		"currency_converter": "Currency Converter",
		"settings":           "Settings",
		"language":           "Language",
		"user_type":          "User Type",
		"profile":            "Your Profile",
		"monthly_income":     "Monthly Income (₹)",
		"student":            "Student",
		"professional":       "Professional",
		"farmer":             "Farmer",
		"senior_citizen":     "Senior Citizen",
		"budget":             "Budget",
		"savings":            "Savings",
		"investment":         "Investment",
		"expense":            "Expense",
		"income":             "Income",
		"loan":               "Loan",
		"debt":               "Debt",
		"tax":                "Tax",
		"insurance":          "Insurance",
		"emergency_fund":     "Emergency Fund",
		"ask_question":       "Ask me anything about personal finance...",
		"no_data":            "No data available. Please upload your transaction data.",
		"error_occurred":     "An error occurred. Please try again.",
	},
	Tamil: {
		"welcome":            "JarvisFi தனிப்பட்ட நிதி உதவியாளருக்கு வரவேற்கிறோம்",
		"chat":               "அரட்டை",
		"budget_analysis":    "பட்ஜெட் பகுப்பாய்வு",
		"smart_alerts":       "ஸ்மார்ட் எச்சரிக்கைகள்",
		"currency_converter": "நாணய மாற்றி",
		"settings":           "அமைப்புகள்",
		"language":           "மொழி",
		"user_type":          "பயனர் வகை",
		"profile":            "உங்கள் சுயவிவரம்",
		"monthly_income":     "மாதாந்திர வருமானம் (₹)",
		"student":            "மாணவர்",
		"professional":       "தொழில்முறை",
		"farmer":             "விவசாயி",
		"senior_citizen":     "மூத்த குடிமகன்",
		"budget":             "பட்ஜெட்",
		"savings":            "சேமிப்பு",
		"investment":         "முதலீடு",
		"expense":            "செலவு",
		"income":             "வருமானம்",
		"loan":               "கடன்",
		"debt":               "கடன்",
		"tax":                "வரி",
		"insurance":          "காப்பீடு",
		"emergency_fund":     "அவசர நிதி",
		"ask_question":       "தனிப்பட்ட நிதி பற்றி எதையும் கேளுங்கள்...",
		"no_data":            "தரவு இல்லை. உங்கள் பரிவர்த்தனை தரவைப் பதிவேற்றவும்.",
		"error_occurred":     "ஒரு பிழை ஏற்பட்டது. மீண்டும் முயற்சிக்கவும்.",
	},
}

// Translate returns key in lang, falling back to English and then to the
// key itself.
func Translate(key, lang string) string {
	if v, ok := translations[lang][key]; ok {
		return v
	}
	if v, ok := translations[English][key]; ok {
		return v
	}
	return key
}

// termOrder lists the financial terms replaced by SubstituteTerms, longest
// first so "emergency fund" wins over "fund".
var termOrder = []struct {
	en, key string
}{
	{"emergency fund", "emergency_fund"},
	{"investments", "investment"},
	{"investment", "investment"},
	{"expenses", "expense"},
	{"expense", "expense"},
	{"insurance", "insurance"},
	{"savings", "savings"},
	{"budget", "budget"},
	{"income", "income"},
	{"loan", "loan"},
	{"debt", "debt"},
	{"tax", "tax"},
}

var termPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(termOrder))
	for i, t := range termOrder {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(t.en) + `\b`)
	}
	return out
}()

// SubstituteTerms replaces English financial terms in text with their lang
// equivalents. Languages without a table return text unchanged.
func SubstituteTerms(text, lang string) string {
	table, ok := translations[lang]
	if !ok || lang == English {
		return text
	}
	for i, t := range termOrder {
		if v, ok := table[t.key]; ok {
			text = termPatterns[i].ReplaceAllLiteralString(text, v)
		}
	}
	return text
}

var tamilPatterns = map[string][]string{
	"budget":     {"பட்ஜெட்", "செலவு திட்டம்", "பணம் நிர்வாகம்"},
	"savings":    {"சேமிப்பு", "பணம் சேமிக்க", "சேர்த்து வைக்க"},
	"investment": {"முதலீடு", "பணம் முதலீடு", "பங்கு", "மியூச்சுவல் ஃபண்ட்"},
	"loan":       {"கடன்", "லோன்", "கடன் வாங்க"},
	"tax":        {"வரி", "டாக்ஸ்", "வரி சேமிப்பு"},
	"expense":    {"செலவு", "செலவழிப்பு", "பணம் செலவு"},
	"income":     {"வருமானம்", "சம்பளம்", "வேலை"},
	"insurance":  {"காப்பீடு", "இன்சூரன்ஸ்"},
	"how":        {"எப்படி", "எவ்வாறு", "என்ன வழி"},
	"what":       {"என்ன", "எது", "எதை"},
	"where":      {"எங்கே", "எங்கு", "எந்த இடத்தில்"},
	"when":       {"எப்போது", "எந்த நேரம்"},
	"why":        {"ஏன்", "எதற்காக"},
	"help":       {"உதவி", "உதவுங்கள்", "சொல்லுங்கள்"},
	"money":      {"பணம்", "காசு", "ரூபாய்"},
	"save":       {"சேமிக்க", "சேர்க்க", "வைக்க"},
	"spend":      {"செலவு", "செலவழிக்க", "கொடுக்க"},
}

// ExtractConcepts returns the English concepts whose Tamil patterns occur in
// query, sorted and without duplicates.
func ExtractConcepts(query string) []string {
	out := []string{}
	for concept, patterns := range tamilPatterns {
		for _, p := range patterns {
			if strings.Contains(query, p) {
				out = append(out, concept)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// IntentFromConcepts maps extracted concepts to a chat intent name.
func IntentFromConcepts(concepts []string) string {
	has := make(map[string]bool, len(concepts))
	for _, c := range concepts {
		has[c] = true
	}
	switch {
	case has["budget"] || has["expense"]:
		return "budgeting"
	case has["savings"] || has["save"]:
		return "savings"
	case has["investment"]:
		return "investment"
	case has["loan"]:
		return "debt_management"
	case has["tax"]:
		return "tax_planning"
	case has["insurance"]:
		return "insurance"
	default:
		return "general_financial"
	}
}

// Negotiate picks the supported language that best matches an
// Accept-Language header, or the first supported language.
func Negotiate(acceptLanguage string, supported []string) string {
	if len(supported) == 0 {
		return English
	}
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tags = append(tags, language.Make(s))
	}
	_, idx := language.MatchStrings(language.NewMatcher(tags), acceptLanguage)
	if idx < 0 || idx >= len(supported) {
		return supported[0]
	}
	return supported[idx]
}

// Supported reports whether lang is one of supported.
func Supported(lang string, supported []string) bool {
	for _, s := range supported {
		if s == lang {
			return true
		}
	}
	return false
}
