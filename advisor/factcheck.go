package advisor

import (
	"math"
	"regexp"
	"strings"
)

// Risk levels assigned by AssessRisk.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

var riskKeywords = []struct {
	level    string
	keywords []string
}{
	{RiskCritical, []string{
		"guaranteed returns", "risk-free investment", "get rich quick",
		"double your money", "no risk", "sure profit", "insider information",
	}},
	{RiskHigh, []string{
		"stock recommendation", "buy this stock", "sell everything",
		"invest all", "take loan for investment", "crypto currency",
		"bitcoin", "day trading", "margin trading",
	}},
	{RiskMedium, []string{
		"investment advice", "portfolio allocation", "mutual funds",
		"insurance policy", "tax planning", "retirement planning",
	}},
}

// Disclaimer texts.
const (
	DisclaimerInvestment = "⚠️ This is general information only. Please consult a certified financial advisor before making investment decisions."
	DisclaimerTax        = "⚠️ Tax laws are complex and change frequently. Please consult a tax professional for personalized advice."
	DisclaimerLoan       = "⚠️ Loan terms vary by lender and individual circumstances. Please verify details with financial institutions."
	DisclaimerInsurance  = "⚠️ Insurance needs are personal. Please consult with licensed insurance agents for suitable coverage."
	DisclaimerCritical   = "🚨 CRITICAL: This advice may be misleading or harmful. Please consult certified professionals immediately."
	DisclaimerHighRisk   = "⚠️ HIGH RISK: This information requires professional verification before acting upon it."
	DisclaimerGeneral    = "💡 This is general information only. Individual circumstances may vary."
)

const professionalWarning = "This topic requires professional consultation. Please verify with certified experts."

// Topic words match at the start of a word, so "emi" matches "EMIs" but not
// "premium".
var topicDisclaimers = []struct {
	pattern    *regexp.Regexp
	disclaimer string
}{
	{regexp.MustCompile(`\b(invest|stock|mutual fund|return)`), DisclaimerInvestment},
	{regexp.MustCompile(`\b(tax|deduction|filing|income tax)`), DisclaimerTax},
	{regexp.MustCompile(`\b(loan|credit|emi|interest rate)`), DisclaimerLoan},
	{regexp.MustCompile(`\b(insurance|policy|coverage|claim)`), DisclaimerInsurance},
}

// SourceRef is a supporting chunk summarized in a fact check.
type SourceRef struct {
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
	Preview    string  `json:"content_preview"`
}

// FactCheckResult describes how well a response is backed by the knowledge
// base and which disclaimers it needs.
type FactCheckResult struct {
	Verified    bool        `json:"verified"`
	Confidence  float64     `json:"confidence"`
	RiskLevel   string      `json:"risk_level"`
	Sources     []SourceRef `json:"sources"`
	Warnings    []string    `json:"warnings"`
	Disclaimers []string    `json:"disclaimers"`
}

// AssessRisk rates response and the query that produced it.
func AssessRisk(response, query string) string {
	text := strings.ToLower(response + " " + query)
	for _, rk := range riskKeywords {
		for _, k := range rk.keywords {
			if strings.Contains(text, k) {
				return rk.level
			}
		}
	}
	return RiskLow
}

// Disclaimers returns the topic and risk disclaimers for response, or the
// general one when nothing else applies.
func Disclaimers(response, query, risk string) []string {
	text := strings.ToLower(response + " " + query)
	var out []string
	for _, td := range topicDisclaimers {
		if td.pattern.MatchString(text) {
			out = append(out, td.disclaimer)
		}
	}
	switch risk {
	case RiskCritical:
		out = append(out, DisclaimerCritical)
	case RiskHigh:
		out = append(out, DisclaimerHighRisk)
	}
	if len(out) == 0 {
		out = append(out, DisclaimerGeneral)
	}
	return dedupe(out)
}

// FactCheck checks response against docs, the chunks retrieved for query.
// The response counts as verified when the average similarity exceeds 0.7.
func FactCheck(response, query string, docs []Match) FactCheckResult {
	res := FactCheckResult{
		Sources:  []SourceRef{},
		Warnings: []string{},
	}
	if len(docs) > 0 {
		var sum float64
		for _, d := range docs {
			sum += d.Similarity
			res.Sources = append(res.Sources, SourceRef{
				Source:     d.Source,
				Similarity: d.Similarity,
				Preview:    preview(d.Content, 200),
			})
		}
		avg := sum / float64(len(docs))
		res.Confidence = math.Round(math.Min(avg, 0.95)*1e4) / 1e4
		res.Verified = avg > 0.7
	}
	res.RiskLevel = AssessRisk(response, query)
	res.Disclaimers = Disclaimers(response, query, res.RiskLevel)
	if res.RiskLevel == RiskHigh || res.RiskLevel == RiskCritical {
		res.Warnings = append(res.Warnings, professionalWarning)
	}
	return res
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
