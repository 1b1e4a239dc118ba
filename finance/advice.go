package finance

import (
	"math"
	"slices"
)

// Debt risk levels.
const (
	HighRisk     = "High Risk"
	ModerateRisk = "Moderate Risk"
	LowRisk      = "Low Risk"
)

// RestructuringOption is a way to reorganize existing debt.
type RestructuringOption struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
	Eligibility string   `json:"eligibility"`
}

var restructuringOptions = []RestructuringOption{
	{
		Type:        "Debt Consolidation",
		Description: "Combine all debts into single loan with lower interest",
		Pros:        []string{"Single EMI", "Lower interest rate", "Simplified tracking"},
		Cons:        []string{"May extend repayment period", "Requires good credit score"},
		Eligibility: "Credit score > 650",
	},
	{
		Type:        "Balance Transfer",
		Description: "Transfer high-interest debt to lower-interest cards",
		Pros:        []string{"0% intro APR offers", "Lower monthly payments"},
		Cons:        []string{"Transfer fees", "Temporary benefit"},
		Eligibility: "Good payment history",
	},
	{
		Type:        "EMI Restructuring",
		Description: "Negotiate with lenders for extended payment terms",
		Pros:        []string{"Lower monthly EMI", "Avoid default"},
		Cons:        []string{"Higher total interest", "Credit score impact"},
		Eligibility: "Financial hardship proof",
	},
}

// DebtAnalysis summarizes total debt against annual income.
type DebtAnalysis struct {
	TotalDebt            float64               `json:"total_debt"`
	MonthlyIncome        float64               `json:"monthly_income"`
	DebtToIncomeRatio    float64               `json:"debt_to_income_ratio"`
	RiskLevel            string                `json:"risk_level"`
	Recommendations      []string              `json:"recommendations"`
	RestructuringOptions []RestructuringOption `json:"restructuring_options"`
}

// DebtRisk classifies a debt-to-annual-income ratio.
func DebtRisk(ratio float64) string {
	switch {
	case ratio > 0.4:
		return HighRisk
	case ratio > 0.2:
		return ModerateRisk
	default:
		return LowRisk
	}
}

// AnalyzeDebt sums debts by name and compares them with a year of income.
// Restructuring options are only offered when there is debt.
func AnalyzeDebt(debts map[string]float64, monthlyIncome float64) *DebtAnalysis {
	var total float64
	for _, v := range debts {
		total += v
	}
	var ratio float64
	if monthlyIncome > 0 {
		ratio = total / (monthlyIncome * 12)
	}
	risk := DebtRisk(ratio)

	var recs []string
	switch risk {
	case HighRisk:
		recs = []string{
			"High debt-to-income ratio - consider debt consolidation",
			"Prioritize high-interest debt (credit cards) first",
			"Contact lenders to negotiate payment plans",
			"Consider increasing income through side jobs",
		}
	case ModerateRisk:
		recs = []string{
			"Moderate debt level - create structured repayment plan",
			"Use debt avalanche method (highest interest first)",
			"Avoid taking new debt until current debt reduces",
			"Track progress monthly",
		}
	default:
		recs = []string{
			"Healthy debt level - maintain current payments",
			"Consider prepaying loans to save interest",
			"Build emergency fund alongside debt payments",
			"Start investing surplus funds",
		}
	}

	opts := []RestructuringOption{}
	if total > 0 {
		opts = append(opts, restructuringOptions...)
	}
	return &DebtAnalysis{
		TotalDebt:            round2(total),
		MonthlyIncome:        monthlyIncome,
		DebtToIncomeRatio:    math.Round(ratio*10000) / 10000,
		RiskLevel:            risk,
		Recommendations:      recs,
		RestructuringOptions: opts,
	}
}

// FundAllocation is one fund category in a recommended mix.
type FundAllocation struct {
	Name       string `json:"name"`
	Allocation int    `json:"allocation"`
	Risk       string `json:"risk"`
}

// TaxSavingInstrument is a Section 80C instrument.
type TaxSavingInstrument struct {
	Instrument string  `json:"instrument"`
	Limit      float64 `json:"limit"`
	LockIn     string  `json:"lock_in"`
	Returns    string  `json:"returns"`
}

// AssetAllocation splits a portfolio between equity and debt, in percent.
type AssetAllocation struct {
	Equity int `json:"equity"`
	Debt   int `json:"debt"`
}

// InvestmentPlan is a personalized investment recommendation.
type InvestmentPlan struct {
	MonthlyCapacity  float64               `json:"monthly_investment_capacity"`
	AssetAllocation  AssetAllocation       `json:"asset_allocation"`
	RecommendedFunds []FundAllocation      `json:"recommended_funds"`
	TaxSavingOptions []TaxSavingInstrument `json:"tax_saving_options"`
	UserTypeTips     []string              `json:"user_type_specific"`
}

var fundMixes = map[string][]FundAllocation{
	"aggressive": {
		{"Large Cap Equity Fund", 40, "Medium"},
		{"Mid Cap Equity Fund", 30, "High"},
		{"Small Cap Equity Fund", 20, "Very High"},
		{"Debt Fund", 10, "Low"},
	},
	"moderate": {
		{"Large Cap Equity Fund", 50, "Medium"},
		{"Mid Cap Equity Fund", 20, "High"},
		{"Hybrid Fund", 20, "Medium"},
		{"Debt Fund", 10, "Low"},
	},
	"conservative": {
		{"Large Cap Equity Fund", 30, "Medium"},
		{"Hybrid Fund", 40, "Medium"},
		{"Debt Fund", 20, "Low"},
		{"Fixed Deposits", 10, "Very Low"},
	},
}

var taxSavingInstruments = []TaxSavingInstrument{
	{"ELSS Mutual Funds", TaxSavingLimit80C, "3 years", "12-15%"},
	{"PPF", TaxSavingLimit80C, "15 years", "7-8%"},
	{"NSC", TaxSavingLimit80C, "5 years", "6-7%"},
	{"Life Insurance", TaxSavingLimit80C, "Policy term", "Variable"},
}

var userTypeTips = map[string][]string{
	"student": {
		"Start with small SIPs (₹500-1000) to build habit",
		"Focus on equity funds for long-term growth",
		"Avoid debt until you have stable income",
		"Learn about investments through SIP calculators",
	},
	"farmer": {
		"Invest surplus after crop sales in lump sum",
		"Consider Kisan Vikas Patra for guaranteed returns",
		"Diversify beyond agriculture through mutual funds",
		"Use PM-KISAN amount for systematic investments",
	},
	"senior_citizen": {
		"Focus on income-generating investments",
		"Senior Citizen Savings Scheme (SCSS) for regular income",
		"Avoid high-risk investments",
		"Maintain higher cash reserves for emergencies",
	},
}

// InvestmentRecommendations builds a plan from age, monthly income, risk
// tolerance and user type. Unknown risk tolerances get the conservative
// mix.
func InvestmentRecommendations(age int, monthlyIncome float64, risk, userType string) *InvestmentPlan {
	equity := 100 - age
	if equity > 80 {
		equity = 80
	}
	if equity < 0 {
		equity = 0
	}
	mix, ok := fundMixes[risk]
	if !ok {
		mix = fundMixes["conservative"]
	}
	tips := userTypeTips[userType]
	if tips == nil {
		tips = []string{}
	}
	return &InvestmentPlan{
		MonthlyCapacity:  math.Floor(monthlyIncome * SIPRecommendedShare),
		AssetAllocation:  AssetAllocation{Equity: equity, Debt: 100 - equity},
		RecommendedFunds: slices.Clone(mix),
		TaxSavingOptions: slices.Clone(taxSavingInstruments),
		UserTypeTips:     slices.Clone(tips),
	}
}
