package finance

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/user/jarvisfi-go/security"
)

const (
	analysisWindowDays = 90
	topCategoryCount   = 5
	maxRecommendations = 6
)

// Spending groups, checked in this order by substring match.
var spendingGroups = []struct {
	name     string
	keywords []string
}{
	{"essentials", []string{"rent", "groceries", "utilities", "transportation", "healthcare"}},
	{"lifestyle", []string{"dining", "entertainment", "shopping", "subscriptions"}},
	{"financial", []string{"insurance", "investments", "savings", "loan_payments"}},
	{"miscellaneous", []string{"gifts", "charity", "other"}},
}

// Transaction is one bank statement line. Negative amounts are expenses.
type Transaction struct {
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
}

// UnmarshalJSON accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	type plain Transaction
	var raw struct {
		plain
		Date string `json:"date"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Transaction(raw.plain)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if d, err := time.Parse(layout, raw.Date); err == nil {
			t.Date = d
			return nil
		}
	}
	return fmt.Errorf("invalid transaction date %q", raw.Date)
}

// BudgetProfile is the part of a user profile the analyses read.
type BudgetProfile struct {
	UserType      string  `json:"user_type"`
	MonthlyIncome float64 `json:"monthly_income" validate:"gte=0"`
}

// BudgetSummary totals the analysis window.
type BudgetSummary struct {
	TotalSpent       float64 `json:"total_spent"`
	TotalIncome      float64 `json:"total_income"`
	NetSavings       float64 `json:"net_savings"`
	AvgDailySpending float64 `json:"avg_daily_spending"`
	LargestExpense   float64 `json:"largest_expense"`
	TransactionCount int     `json:"transaction_count"`
	SavingsRate      float64 `json:"savings_rate"`
}

// CategoryAmount is a category with its total spend.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// CategoryBreakdown is spend per category and per spending group.
type CategoryBreakdown struct {
	ByCategory    map[string]float64 `json:"by_category"`
	ByGroup       map[string]float64 `json:"by_group"`
	Percentages   map[string]float64 `json:"percentages"`
	TopCategories []CategoryAmount   `json:"top_categories"`
}

// MonthAmount is total spend in one calendar month (YYYY-MM).
type MonthAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// SpendingTrend compares recent months with earlier ones.
type SpendingTrend struct {
	Monthly         []MonthAmount `json:"monthly_spending"`
	TrendPercentage float64       `json:"trend_percentage"`
	Direction       string        `json:"trend_direction"`
	HighestMonth    string        `json:"highest_month,omitempty"`
	LowestMonth     string        `json:"lowest_month,omitempty"`
}

// HealthBreakdown explains a health score.
type HealthBreakdown struct {
	SavingsRate   float64 `json:"savings_health"`
	Trend         string  `json:"spending_trend"`
	EssentialsPct float64 `json:"category_balance"`
}

// BudgetHealth is a 0-100 score with a status.
type BudgetHealth struct {
	Score     int              `json:"score"`
	Status    string           `json:"status"`
	Color     string           `json:"color"`
	Breakdown *HealthBreakdown `json:"breakdown,omitempty"`
}

// BudgetAnalysis is the full output of AnalyzeBudget.
type BudgetAnalysis struct {
	Summary         BudgetSummary     `json:"summary"`
	Categories      CategoryBreakdown `json:"category_breakdown"`
	Trends          SpendingTrend     `json:"trends"`
	Insights        []string          `json:"insights"`
	Recommendations []string          `json:"recommendations"`
	Health          BudgetHealth      `json:"budget_health"`
}

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// DefaultAnalysis is returned when there is nothing to analyze.
func DefaultAnalysis() *BudgetAnalysis {
	return &BudgetAnalysis{
		Categories: CategoryBreakdown{
			ByCategory:    map[string]float64{},
			ByGroup:       map[string]float64{},
			Percentages:   map[string]float64{},
			TopCategories: []CategoryAmount{},
		},
		Trends:          SpendingTrend{Monthly: []MonthAmount{}, Direction: TrendStable},
		Insights:        []string{"Unable to analyze transactions. Please check your data format."},
		Recommendations: []string{"Upload transaction data to get personalized recommendations."},
		Health:          BudgetHealth{Score: 0, Status: "No Data", Color: "gray"},
	}
}

// AnalyzeBudget analyses the 90 days up to now. The trend uses every
// transaction given. Input with nothing inside the window gets
// DefaultAnalysis.
func AnalyzeBudget(txs []Transaction, profile BudgetProfile, now time.Time) *BudgetAnalysis {
	start := now.AddDate(0, 0, -analysisWindowDays)
	recent := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if !t.Date.Before(start) && !t.Date.After(now) {
			recent = append(recent, t)
		}
	}
	if len(recent) == 0 {
		return DefaultAnalysis()
	}

	summary := summarize(recent)
	cats := categorize(recent)
	trend := spendingTrend(txs)

	return &BudgetAnalysis{
		Summary:         summary,
		Categories:      cats,
		Trends:          trend,
		Insights:        insights(recent, summary, cats, profile),
		Recommendations: recommendations(summary, cats, profile),
		Health:          health(summary, cats, trend),
	}
}

func summarize(txs []Transaction) BudgetSummary {
	var s BudgetSummary
	for _, t := range txs {
		switch {
		case t.Amount < 0:
			spent := -t.Amount
			s.TotalSpent += spent
			s.TransactionCount++
			if spent > s.LargestExpense {
				s.LargestExpense = spent
			}
		case t.Amount > 0:
			s.TotalIncome += t.Amount
		}
	}
	if s.TotalIncome > 0 {
		s.SavingsRate = round2((s.TotalIncome - s.TotalSpent) / s.TotalIncome * 100)
	}
	s.NetSavings = round2(s.TotalIncome - s.TotalSpent)
	s.AvgDailySpending = round2(s.TotalSpent / analysisWindowDays)
	s.TotalSpent = round2(s.TotalSpent)
	s.TotalIncome = round2(s.TotalIncome)
	s.LargestExpense = round2(s.LargestExpense)
	return s
}

// SpendingGroup maps a category name to essentials, lifestyle, financial or
// miscellaneous.
func SpendingGroup(category string) string {
	c := strings.ToLower(category)
	for _, g := range spendingGroups {
		for _, kw := range g.keywords {
			if strings.Contains(c, kw) {
				return g.name
			}
		}
	}
	return "miscellaneous"
}

func categorize(txs []Transaction) CategoryBreakdown {
	b := CategoryBreakdown{
		ByCategory:  map[string]float64{},
		ByGroup:     map[string]float64{},
		Percentages: map[string]float64{},
	}
	var total float64
	for _, t := range txs {
		if t.Amount >= 0 {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = "other"
		}
		b.ByCategory[cat] += -t.Amount
		total += -t.Amount
	}

	top := make([]CategoryAmount, 0, len(b.ByCategory))
	for cat, amt := range b.ByCategory {
		b.ByGroup[SpendingGroup(cat)] += amt
		if total > 0 {
			b.Percentages[cat] = round2(amt / total * 100)
		}
		top = append(top, CategoryAmount{Category: cat, Amount: round2(amt)})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Amount != top[j].Amount {
			return top[i].Amount > top[j].Amount
		}
		return top[i].Category < top[j].Category
	})
	if len(top) > topCategoryCount {
		top = top[:topCategoryCount]
	}
	b.TopCategories = top
	return b
}

func spendingTrend(txs []Transaction) SpendingTrend {
	byMonth := map[string]float64{}
	for _, t := range txs {
		if t.Amount < 0 {
			byMonth[t.Date.Format("2006-01")] += -t.Amount
		}
	}
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	tr := SpendingTrend{Monthly: make([]MonthAmount, 0, len(months)), Direction: TrendStable}
	var hi, lo float64
	for i, m := range months {
		amt := byMonth[m]
		tr.Monthly = append(tr.Monthly, MonthAmount{Month: m, Amount: round2(amt)})
		if i == 0 || amt > hi {
			hi, tr.HighestMonth = amt, m
		}
		if i == 0 || amt < lo {
			lo, tr.LowestMonth = amt, m
		}
	}

	if n := len(months); n >= 2 {
		recentStart := n - 3
		if recentStart < 0 {
			recentStart = 0
		}
		recent := meanOf(byMonth, months[recentStart:])
		older := byMonth[months[0]]
		if n > 3 {
			older = meanOf(byMonth, months[:n-3])
		}
		if older > 0 {
			tr.TrendPercentage = round2((recent - older) / older * 100)
		}
	}
	switch {
	case tr.TrendPercentage > 5:
		tr.Direction = TrendIncreasing
	case tr.TrendPercentage < -5:
		tr.Direction = TrendDecreasing
	}
	return tr
}

func meanOf(byMonth map[string]float64, months []string) float64 {
	var sum float64
	for _, m := range months {
		sum += byMonth[m]
	}
	return sum / float64(len(months))
}

func isWeekend(t time.Time) bool {
	d := t.Weekday()
	return d == time.Saturday || d == time.Sunday
}

func insights(txs []Transaction, s BudgetSummary, c CategoryBreakdown, p BudgetProfile) []string {
	if s.TransactionCount == 0 {
		return []string{"No expense data available for analysis."}
	}
	out := []string{}

	var weekendSum, weekdaySum float64
	var weekendN, weekdayN int
	for _, t := range txs {
		if t.Amount >= 0 {
			continue
		}
		if isWeekend(t.Date) {
			weekendSum += -t.Amount
			weekendN++
		} else {
			weekdaySum += -t.Amount
			weekdayN++
		}
	}
	if weekendN > 0 && weekdayN > 0 && weekendSum/float64(weekendN) > 1.5*weekdaySum/float64(weekdayN) {
		out = append(out, "Your weekend spending is significantly higher than weekdays. Consider planning weekend activities within budget.")
	}

	if len(c.TopCategories) > 0 {
		top := c.TopCategories[0].Category
		if pct := c.Percentages[top]; pct > 30 {
			if p.UserType == "student" {
				out = append(out, fmt.Sprintf("You're spending %g%% of your budget on %s. As a student, consider finding more cost-effective alternatives.", pct, top))
			} else {
				out = append(out, fmt.Sprintf("%s accounts for %g%% of your spending. This might be an area to optimize.", top, pct))
			}
		}
	}

	switch {
	case s.SavingsRate < 10 && p.UserType == "student":
		out = append(out, "Your savings rate is low. Even saving ₹500-1000 per month as a student can build good financial habits.")
	case s.SavingsRate < 10:
		out = append(out, "Your savings rate is below recommended levels. Aim for saving at least 20% of your income.")
	case s.SavingsRate > 30:
		out = append(out, "Great job on saving! You're saving more than the recommended 20%. Consider investing some of your savings for better returns.")
	}
	return out
}

func recommendations(s BudgetSummary, c CategoryBreakdown, p BudgetProfile) []string {
	var out []string
	if p.UserType == "student" {
		out = []string{
			"Create a simple 50-30-20 budget: 50% needs, 30% wants, 20% savings",
			"Track your expenses using apps or a simple spreadsheet",
			"Consider part-time work or internships to increase income",
			"Look into student discounts and free activities for entertainment",
		}
	} else {
		out = []string{
			"Build an emergency fund covering 3-6 months of expenses",
			"Consider systematic investment plans (SIP) for long-term wealth building",
			"Optimize your tax planning with ELSS and other 80C investments",
			"Review and increase your health insurance coverage",
		}
	}

	dining, seen := categoryTotal(c, "dining")
	ent, seenEnt := categoryTotal(c, "entertainment")
	if (seen || seenEnt) && dining+ent > p.MonthlyIncome*0.15 {
		out = append(out, "Consider meal planning and cooking at home to reduce dining expenses")
	}
	if s.SavingsRate < 20 {
		out = append(out, "Automate your savings by setting up automatic transfers to a savings account")
	}
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

// categoryTotal looks a category up case-insensitively.
func categoryTotal(c CategoryBreakdown, name string) (float64, bool) {
	for cat, amt := range c.ByCategory {
		if strings.EqualFold(cat, name) {
			return amt, true
		}
	}
	return 0, false
}

func health(s BudgetSummary, c CategoryBreakdown, tr SpendingTrend) BudgetHealth {
	score := 0
	switch {
	case s.SavingsRate >= 20:
		score += 40
	case s.SavingsRate >= 10:
		score += 25
	case s.SavingsRate >= 0:
		score += 10
	}

	switch tr.Direction {
	case TrendStable:
		score += 30
	case TrendDecreasing:
		score += 25
	default:
		score += 10
	}

	var essentials float64
	if s.TotalSpent > 0 {
		essentials = c.ByGroup["essentials"] / s.TotalSpent * 100
	}
	switch {
	case essentials >= 40 && essentials <= 60:
		score += 30
	case essentials >= 30 && essentials <= 70:
		score += 20
	default:
		score += 10
	}

	h := BudgetHealth{
		Score: score,
		Breakdown: &HealthBreakdown{
			SavingsRate:   s.SavingsRate,
			Trend:         tr.Direction,
			EssentialsPct: math.Round(essentials*10) / 10,
		},
	}
	switch {
	case score >= 80:
		h.Status, h.Color = "Excellent", "green"
	case score >= 60:
		h.Status, h.Color = "Good", "blue"
	case score >= 40:
		h.Status, h.Color = "Fair", "orange"
	default:
		h.Status, h.Color = "Needs Improvement", "red"
	}
	return h
}

// BudgetSplit divides monthly income into needs, wants and savings.
type BudgetSplit struct {
	Income  float64 `json:"income"`
	Needs   float64 `json:"needs"`
	Wants   float64 `json:"wants"`
	Savings float64 `json:"savings"`
}

// BudgetRule503020 applies the 50/30/20 rule.
func BudgetRule503020(income float64) (*BudgetSplit, error) {
	switch {
	case !security.Finite(income):
		return nil, nonFinite("income")
	case income <= 0:
		return nil, invalid("income", "gt=0", "income must be positive")
	}
	return &BudgetSplit{
		Income:  income,
		Needs:   round2(income * 0.5),
		Wants:   round2(income * 0.3),
		Savings: round2(income * 0.2),
	}, nil
}
