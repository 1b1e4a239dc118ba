package advisor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/jarvisfi-go/apperror"
)

func TestClassifyIntent(t *testing.T) {
	cases := map[string]string{
		"How do I make a monthly budget?":         IntentBudgeting,
		"My spending is out of control":           IntentBudgeting,
		"Which mutual fund should I pick?":        IntentInvestment,
		"What is SIP?":                            IntentInvestment,
		"How can I save more each month?":         IntentSavings,
		"I want to clear my credit card debt":     IntentDebt,
		"Explain the 80C deduction":               IntentTax,
		"Is a term insurance plan worth it?":      IntentInsurance,
		"Hello there":                             IntentGeneral,
		"Budget for my investment and tax goals?": IntentBudgeting,
	}
	for msg, want := range cases {
		assert.Equal(t, want, ClassifyIntent(msg), msg)
	}

	assert.Equal(t, IntentBudgeting, ClassifyIntent("பட்ஜெட் எப்படி போடுவது?"))
	assert.Equal(t, IntentSavings, ClassifyIntent("நான் பணம் சேமிக்க வேண்டும்"))
	assert.Equal(t, IntentInvestment, ClassifyIntent("SIP பற்றி சொல்லுங்கள்"), "english keywords still apply to tamil text")
}

func TestSourcesFor(t *testing.T) {
	assert.Equal(t, []string{"IRDAI Guidelines", "Insurance Product Comparisons", "Claim Settlement Ratios"}, SourcesFor(IntentInsurance))
	assert.Equal(t, []string{"General Financial Guidelines", "RBI Publications"}, SourcesFor(IntentBudgeting))

	s := SourcesFor(IntentTax)
	s[0] = "changed"
	assert.Equal(t, "Income Tax Act 1961", SourcesFor(IntentTax)[0])
}

func TestKnowledgeBaseSearch(t *testing.T) {
	kb := NewKnowledgeBase()
	assert.Equal(t, 3, kb.Documents())

	res := kb.Search("lock in period elss ppf", 0, 0)
	require.Len(t, res, 1)
	assert.Equal(t, "tax_saving_instruments", res[0].DocID)
	assert.Equal(t, "Income Tax Department", res[0].Source)
	assert.InDelta(t, 0.5726, res[0].Similarity, 0.001)

	res = kb.Search("minimum balance savings accounts", 3, 0.3)
	require.Len(t, res, 1)
	assert.Equal(t, "rbi_savings_guidelines", res[0].DocID)
	assert.InDelta(t, 0.5252, res[0].Similarity, 0.001)

	assert.Empty(t, kb.Search("minimum balance savings accounts", 3, 0.9))
	assert.Empty(t, kb.Search("What is SIP?", 3, 0.3), "weak matches stay below the threshold")

	empty := kb.Search("!!!", 3, 0.3)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestKnowledgeBaseAddDocument(t *testing.T) {
	kb := NewKnowledgeBase()

	n, err := kb.AddDocument("pmfby", "PMFBY", "Ministry of Agriculture", "Crop insurance premium is 2 percent for kharif crops.")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 4, kb.Documents())

	res := kb.Search("kharif crop insurance premium", 3, 0.3)
	require.NotEmpty(t, res)
	assert.Equal(t, "pmfby", res[0].DocID)

	_, err = kb.AddDocument("pmfby", "PMFBY", "Ministry of Agriculture", "Rabi crops pay 1.5 percent.")
	require.NoError(t, err)
	assert.Equal(t, 4, kb.Documents())
	assert.Empty(t, kb.Search("kharif", 3, 0.3), "replaced document is gone")

	_, err = kb.AddDocument(" ", "x", "y", "text")
	assert.True(t, apperror.IsValidationError(err))
	_, err = kb.AddDocument("id", "x", "y", "   ")
	assert.True(t, apperror.IsValidationError(err))
}

func TestChunkText(t *testing.T) {
	plain := ChunkText(strings.Repeat("a", 2500), 1000, 200)
	require.Len(t, plain, 3)
	assert.Len(t, plain[0], 1000)
	assert.Len(t, plain[1], 1000)
	assert.Len(t, plain[2], 900)

	late := ChunkText(strings.Repeat("a", 899)+"."+strings.Repeat("b", 600), 1000, 200)
	require.Len(t, late, 2)
	assert.Len(t, late[0], 900)
	assert.True(t, strings.HasSuffix(late[0], "."))
	assert.Len(t, late[1], 800)

	early := ChunkText(strings.Repeat("a", 500)+"."+strings.Repeat("b", 999), 1000, 200)
	require.Len(t, early, 2)
	assert.Len(t, early[0], 1000, "a period outside the last fifth does not end the window")
	assert.Len(t, early[1], 700)

	assert.Equal(t, []string{"short text"}, ChunkText("short text", 1000, 200))
	assert.Empty(t, ChunkText("", 1000, 200))
}

func TestChunkWords(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 450))
	chunks := ChunkWords(text, 200)
	require.Len(t, chunks, 3)
	assert.Len(t, strings.Fields(chunks[2]), 50)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.7, Confidence("short question", 0))
	assert.Equal(t, 0.8, Confidence("short question", 1))
	assert.Equal(t, 0.9, Confidence("short question", 3))
	long := "one two three four five six seven eight nine ten eleven"
	assert.Equal(t, 0.8, Confidence(long, 3))
	assert.Equal(t, 0.6, Confidence(long, 0))
}

func TestAssessRisk(t *testing.T) {
	assert.Equal(t, RiskCritical, AssessRisk("This scheme will double your money", ""))
	assert.Equal(t, RiskHigh, AssessRisk("", "should I buy bitcoin?"))
	assert.Equal(t, RiskMedium, AssessRisk("Consider retirement planning early", ""))
	assert.Equal(t, RiskLow, AssessRisk("Track your spending weekly", "budget"))
}

func TestDisclaimers(t *testing.T) {
	got := Disclaimers("Invest all your savings for guaranteed returns", "", RiskCritical)
	assert.Equal(t, []string{DisclaimerInvestment, DisclaimerCritical}, got)

	got = Disclaimers("Compare EMI options before a home loan and buy term insurance", "", RiskLow)
	assert.Equal(t, []string{DisclaimerLoan, DisclaimerInsurance}, got)

	assert.Equal(t, []string{DisclaimerGeneral}, Disclaimers("Pay the premium on time", "", RiskLow))
	assert.Equal(t, []string{DisclaimerHighRisk}, Disclaimers("day trading", "", RiskHigh))
}

func TestFactCheck(t *testing.T) {
	res := FactCheck("Track your spending weekly", "how to budget", nil)
	assert.False(t, res.Verified)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, RiskLow, res.RiskLevel)
	assert.NotNil(t, res.Sources)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{DisclaimerGeneral}, res.Disclaimers)

	docs := []Match{
		{Source: "A", Similarity: 0.8, Content: strings.Repeat("x", 250)},
		{Source: "B", Similarity: 0.9, Content: "short"},
	}
	res = FactCheck("PPF has a 15 year lock-in", "ppf", docs)
	assert.True(t, res.Verified)
	assert.InDelta(t, 0.85, res.Confidence, 1e-9)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, strings.Repeat("x", 200)+"...", res.Sources[0].Preview)
	assert.Equal(t, "short", res.Sources[1].Preview)

	res = FactCheck("Guaranteed returns!", "", []Match{{Similarity: 0.98}, {Similarity: 0.99}})
	assert.Equal(t, 0.95, res.Confidence)
	assert.Equal(t, RiskCritical, res.RiskLevel)
	assert.Len(t, res.Warnings, 1)

	res = FactCheck("ok", "", []Match{{Similarity: 0.7}})
	assert.False(t, res.Verified, "verification needs an average above 0.7")
}

func TestGreeting(t *testing.T) {
	assert.Contains(t, Greeting("farmer", "en"), "crop loans")
	assert.Contains(t, Greeting("farmer", "ta"), "பயிர் கடன்கள்")
	assert.Equal(t, Greeting("professional", "en"), Greeting("astronaut", "en"))
	assert.Equal(t, Greeting("student", "en"), Greeting("student", "hi"))
}

func TestRuleBasedGenerator(t *testing.T) {
	g := RuleBasedGenerator{}
	assert.Equal(t, RuleBasedName, g.Name())

	prompt := BuildPrompt("How can I save?", ChatRequest{MonthlyIncome: 50000}, IntentSavings, nil)
	assert.Contains(t, prompt, "- Query Intent: savings")
	assert.Contains(t, prompt, "- Monthly Income: ₹50,000")
	assert.Contains(t, prompt, "- Type: beginner")
	got, err := g.Generate(context.Background(), prompt)
	require.NoError(t, err)
	assert.Equal(t, CannedResponse(IntentSavings), got)

	got, err = g.Generate(context.Background(), "what about my budget")
	require.NoError(t, err)
	assert.Contains(t, got, "50/30/20")

	assert.Equal(t, CannedResponse(IntentGeneral), CannedResponse(IntentTax))
}

func TestBuildPromptIncludesGuidelines(t *testing.T) {
	docs := []Match{{Source: "Income Tax Department", Content: "PPF: Lock-in period 15 years"}}
	prompt := BuildPrompt("ppf lock in", ChatRequest{UserType: "professional", Age: 40, Location: "Chennai"}, IntentTax, docs)
	assert.Contains(t, prompt, "Relevant Guidelines:\n[Income Tax Department] PPF: Lock-in period 15 years")
	assert.Contains(t, prompt, "- Age: 40")
	assert.Contains(t, prompt, "- Location: Chennai")
	assert.Contains(t, prompt, "User Query: ppf lock in")
}
