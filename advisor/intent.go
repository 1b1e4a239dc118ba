// Package advisor answers chat messages: it classifies the intent, retrieves
// supporting guidelines, runs the configured text generators with a
// rule-based fallback, and fact-checks the result.
package advisor

import (
	"strings"

	"github.com/user/jarvisfi-go/i18n"
)

// Intent names.
const (
	IntentBudgeting  = "budgeting"
	IntentInvestment = "investment"
	IntentSavings    = "savings"
	IntentDebt       = "debt_management"
	IntentTax        = "tax_planning"
	IntentInsurance  = "insurance"
	IntentGeneral    = "general_financial"
)

// intentKeywords is checked in order; the first intent with a matching
// keyword wins.
var intentKeywords = []struct {
	intent   string
	keywords []string
}{
	{IntentBudgeting, []string{"budget", "expense", "spending"}},
	{IntentInvestment, []string{"invest", "investment", "sip", "mutual fund"}},
	{IntentSavings, []string{"save", "saving", "savings"}},
	{IntentDebt, []string{"loan", "debt", "credit"}},
	{IntentTax, []string{"tax", "taxation", "deduction"}},
	{IntentInsurance, []string{"insurance", "policy"}},
}

// ClassifyIntent maps a message to an intent. Tamil messages go through
// concept extraction instead of English keywords.
func ClassifyIntent(msg string) string {
	if i18n.DetectLanguage(msg) == i18n.Tamil {
		if intent := i18n.IntentFromConcepts(i18n.ExtractConcepts(msg)); intent != IntentGeneral {
			return intent
		}
	}
	lower := strings.ToLower(msg)
	for _, ik := range intentKeywords {
		for _, k := range ik.keywords {
			if strings.Contains(lower, k) {
				return ik.intent
			}
		}
	}
	return IntentGeneral
}

var intentSources = map[string][]string{
	IntentInvestment: {"SEBI Guidelines", "Mutual Fund Fact Sheets", "RBI Investment Guidelines"},
	IntentTax:        {"Income Tax Act 1961", "CBDT Circulars", "Tax Planning Guidelines"},
	IntentSavings:    {"RBI Savings Guidelines", "Bank Interest Rate Policies", "Government Savings Schemes"},
	IntentInsurance:  {"IRDAI Guidelines", "Insurance Product Comparisons", "Claim Settlement Ratios"},
}

// SourcesFor lists the reference material behind answers of an intent.
func SourcesFor(intent string) []string {
	if s, ok := intentSources[intent]; ok {
		return append([]string(nil), s...)
	}
	return []string{"General Financial Guidelines", "RBI Publications"}
}
