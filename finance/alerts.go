package finance

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/user/jarvisfi-go/currency"
)

// Alert types, in priority order.
const (
	AlertCritical = "critical"
	AlertWarning  = "warning"
	AlertInfo     = "info"
	AlertPositive = "positive"
	AlertTip      = "tip"
)

var alertStyles = map[string]struct {
	color, icon string
	priority    int
}{
	AlertCritical: {"red", "🚨", 1},
	AlertWarning:  {"orange", "⚠️", 2},
	AlertInfo:     {"blue", "ℹ️", 3},
	AlertPositive: {"green", "✅", 4},
	AlertTip:      {"purple", "💡", 5},
}

const (
	highSpendingRatio    = 0.8
	elevatedSpendRatio   = 0.7
	categoryOverspend    = 0.4
	unusualTxnMultiplier = 3.0
	lowSavingsRate       = 10
	maxTips              = 2
)

// Alert is one notification about a user's spending.
type Alert struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
	Priority       int    `json:"priority"`
	Color          string `json:"color"`
	Icon           string `json:"icon"`
}

func newAlert(typ, title, msg, rec string) Alert {
	st := alertStyles[typ]
	return Alert{
		Type:           typ,
		Title:          title,
		Message:        msg,
		Recommendation: rec,
		Priority:       st.priority,
		Color:          st.color,
		Icon:           st.icon,
	}
}

func rupees(v float64) string { return "₹" + currency.FormatIndianWhole(v) }

// GenerateAlerts checks spending, budget health, savings, unusual
// transactions and category concentration, then adds positive feedback and
// tips. Alerts are ordered by priority, keeping generation order within a
// priority.
func GenerateAlerts(txs []Transaction, p BudgetProfile, a *BudgetAnalysis, now time.Time) []Alert {
	alerts := []Alert{}
	if len(txs) == 0 {
		return alerts
	}
	if a == nil {
		a = AnalyzeBudget(txs, p, now)
	}

	alerts = append(alerts, spendingAlerts(txs, p, now)...)
	alerts = append(alerts, healthAlerts(a)...)
	alerts = append(alerts, savingsAlerts(a, p)...)
	alerts = append(alerts, unusualAlerts(txs)...)
	alerts = append(alerts, categoryAlerts(a)...)
	alerts = append(alerts, positiveAlerts(a)...)
	alerts = append(alerts, tips(a, p)...)

	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Priority < alerts[j].Priority })
	return alerts
}

func spendingAlerts(txs []Transaction, p BudgetProfile, now time.Time) []Alert {
	if p.MonthlyIncome <= 0 {
		return nil
	}
	since := now.AddDate(0, 0, -30)
	var spent float64
	for _, t := range txs {
		if t.Amount < 0 && !t.Date.Before(since) {
			spent += -t.Amount
		}
	}
	ratio := spent / p.MonthlyIncome
	switch {
	case ratio >= highSpendingRatio:
		return []Alert{newAlert(AlertCritical, "High Spending Alert!",
			fmt.Sprintf("You've spent %.1f%% of your monthly income (%s). Consider reviewing your expenses.", ratio*100, rupees(spent)),
			"Review discretionary spending and look for areas to cut back.")}
	case ratio >= elevatedSpendRatio:
		return []Alert{newAlert(AlertWarning, "Budget Alert",
			fmt.Sprintf("You've used %.1f%% of your monthly budget. Keep an eye on spending.", ratio*100),
			"Monitor remaining expenses for the month carefully.")}
	}
	return nil
}

func healthAlerts(a *BudgetAnalysis) []Alert {
	score := a.Health.Score
	switch {
	case score < 40:
		return []Alert{newAlert(AlertCritical, "Budget Health Critical",
			fmt.Sprintf("Your financial health score is %d/100. Immediate action needed!", score),
			"Focus on increasing savings rate and reducing unnecessary expenses.")}
	case score < 60:
		return []Alert{newAlert(AlertWarning, "Budget Health Needs Improvement",
			fmt.Sprintf("Your financial health score is %d/100. There's room for improvement.", score),
			"Work on building emergency fund and optimizing spending categories.")}
	}
	return nil
}

func savingsAlerts(a *BudgetAnalysis, p BudgetProfile) []Alert {
	rate := a.Summary.SavingsRate
	if rate >= lowSavingsRate {
		return nil
	}
	msg := fmt.Sprintf("Your savings rate is %.1f%%. ", rate)
	var rec string
	if p.UserType == "student" {
		msg += "Even as a student, try to save at least 10%."
		rec = "Start with small amounts - even ₹500/month builds good habits."
	} else {
		msg += "Aim for at least 20% savings rate."
		rec = "Automate your savings and review discretionary spending."
	}
	return []Alert{newAlert(AlertWarning, "Low Savings Rate", msg, rec)}
}

func unusualAlerts(txs []Transaction) []Alert {
	var sum float64
	var n int
	for _, t := range txs {
		if t.Amount < 0 {
			sum += -t.Amount
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	for _, t := range txs {
		if t.Amount < 0 && -t.Amount > avg*unusualTxnMultiplier {
			desc := t.Description
			if desc == "" {
				desc = t.Category
			}
			return []Alert{newAlert(AlertInfo, "Large Transaction Detected",
				fmt.Sprintf("Unusual large expense: %s for %s", rupees(-t.Amount), desc),
				"Verify if this was planned and adjust budget accordingly.")}
		}
	}
	return nil
}

func categoryAlerts(a *BudgetAnalysis) []Alert {
	total := a.Summary.TotalSpent
	if total <= 0 {
		return nil
	}
	cats := make([]string, 0, len(a.Categories.ByCategory))
	for c := range a.Categories.ByCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	titleCase := cases.Title(language.English)
	var out []Alert
	for _, c := range cats {
		amt := a.Categories.ByCategory[c]
		share := amt / total
		if share <= categoryOverspend {
			continue
		}
		name := titleCase.String(c)
		out = append(out, newAlert(AlertWarning, fmt.Sprintf("High %s Spending", name),
			fmt.Sprintf("%s accounts for %.1f%% of your spending (%s)", name, share*100, rupees(amt)),
			fmt.Sprintf("Consider ways to optimize %s expenses.", c)))
	}
	return out
}

func positiveAlerts(a *BudgetAnalysis) []Alert {
	var out []Alert
	if rate := a.Summary.SavingsRate; rate >= 20 {
		out = append(out, newAlert(AlertPositive, "Excellent Savings Rate! 🎉",
			fmt.Sprintf("You're saving %.1f%% of your income - that's fantastic!", rate),
			"Keep it up! Consider investing your savings for better returns."))
	}
	if score := a.Health.Score; score >= 80 {
		out = append(out, newAlert(AlertPositive, "Great Financial Health! ⭐",
			fmt.Sprintf("Your financial health score is %d/100 - excellent management!", score),
			"You're on track! Consider setting stretch financial goals."))
	}
	return out
}

// tips puts category-specific tips ahead of the general ones for the user
// type.
func tips(a *BudgetAnalysis, p BudgetProfile) []Alert {
	var list []string
	if v, ok := categoryTotal(a.Categories, "dining"); ok && v > 5000 {
		list = append(list, "Try meal prepping on weekends to reduce dining out expenses.")
	}
	if v, ok := categoryTotal(a.Categories, "transportation"); ok && v > 3000 {
		list = append(list, "Consider carpooling or public transport to reduce commute costs.")
	}
	if p.UserType == "student" {
		list = append(list,
			"Use student discounts whenever possible - they can save 10-50% on many purchases.",
			"Consider a part-time job or freelancing to boost income during studies.",
			"Start investing small amounts now - time is your biggest advantage!",
		)
	} else {
		list = append(list,
			"Automate your investments - set up SIPs for consistent wealth building.",
			"Review insurance coverage annually to ensure adequate protection.",
			"Consider tax-saving investments like ELSS funds for dual benefits.",
		)
	}
	if len(list) > maxTips {
		list = list[:maxTips]
	}
	out := make([]Alert, 0, len(list))
	for _, t := range list {
		out = append(out, newAlert(AlertTip, "Smart Money Tip 💰", t, ""))
	}
	return out
}

// CountByType tallies alerts per type.
func CountByType(alerts []Alert) map[string]int {
	counts := map[string]int{}
	for _, a := range alerts {
		counts[a.Type]++
	}
	return counts
}

// Urgent returns the critical and warning alerts.
func Urgent(alerts []Alert) []Alert {
	var out []Alert
	for _, a := range alerts {
		if a.Type == AlertCritical || a.Type == AlertWarning {
			out = append(out, a)
		}
	}
	return out
}
