package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, English, DetectLanguage("How should I budget?"))
	assert.Equal(t, English, DetectLanguage(""))
	assert.Equal(t, Tamil, DetectLanguage("பட்ஜெட் எப்படி போடுவது?"))
	assert.Equal(t, Hindi, DetectLanguage("मुझे बचत करनी है"))
	assert.Equal(t, Telugu, DetectLanguage("పొదుపు ఎలా"))
	assert.Equal(t, Tamil, DetectLanguage("SIP பற்றி சொல்லுங்கள் please"))
	assert.Equal(t, Hindi, DetectLanguage("बचत बचत vs சே"), "the script with more characters wins")
}

func TestTranslate(t *testing.T) {
	assert.Equal(t, "பட்ஜெட்", Translate("budget", Tamil))
	assert.Equal(t, "Budget", Translate("budget", English))
	assert.Equal(t, "Budget", Translate("budget", Hindi), "missing languages fall back to English")
	assert.Equal(t, "no_such_key", Translate("no_such_key", Tamil))
}

func TestSubstituteTerms(t *testing.T) {
	got := SubstituteTerms("Build an Emergency Fund before you grow Investments and cut expenses.", Tamil)
	assert.Equal(t, "Build an அவசர நிதி before you grow முதலீடு and cut செலவு.", got)
	assert.Equal(t, "taxation stays", SubstituteTerms("taxation stays", Tamil))
	assert.Equal(t, "budget", SubstituteTerms("budget", English))
	assert.Equal(t, "budget", SubstituteTerms("budget", Hindi))
}

func TestExtractConcepts(t *testing.T) {
	assert.Equal(t, []string{"budget", "how"}, ExtractConcepts("பட்ஜெட் எப்படி போடுவது?"))
	assert.Equal(t, []string{"money", "save", "savings"}, ExtractConcepts("நான் பணம் சேமிக்க வேண்டும்"))
	assert.Empty(t, ExtractConcepts("hello"))
}

func TestIntentFromConcepts(t *testing.T) {
	assert.Equal(t, "budgeting", IntentFromConcepts([]string{"expense", "savings"}))
	assert.Equal(t, "savings", IntentFromConcepts([]string{"save"}))
	assert.Equal(t, "investment", IntentFromConcepts([]string{"investment", "loan"}))
	assert.Equal(t, "debt_management", IntentFromConcepts([]string{"loan"}))
	assert.Equal(t, "tax_planning", IntentFromConcepts([]string{"tax"}))
	assert.Equal(t, "general_financial", IntentFromConcepts(nil))
}

func TestNegotiate(t *testing.T) {
	supported := []string{"en", "ta", "hi", "te"}
	assert.Equal(t, "ta", Negotiate("ta-IN,ta;q=0.9,en;q=0.8", supported))
	assert.Equal(t, "hi", Negotiate("hi", supported))
	assert.Equal(t, "en", Negotiate("fr-FR", supported))
	assert.Equal(t, "en", Negotiate("", supported))
	assert.Equal(t, "ta", Negotiate("de", []string{"ta", "en"}))
	assert.Equal(t, English, Negotiate("ta", nil))

	assert.True(t, Supported("ta", supported))
	assert.False(t, Supported("fr", supported))
}
