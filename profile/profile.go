// Package profile personalizes advice by user type: greetings, suggested
// topics, savings targets, progress milestones and next steps.
package profile

import (
	"math"
	"strings"
)

// TypeConfig is the personalization bundle for one user type.
type TypeConfig struct {
	Description        string   `json:"description"`
	FocusAreas         []string `json:"focus_areas"`
	DefaultGoals       []string `json:"default_goals"`
	SavingsRate        float64  `json:"recommended_savings_rate"`
	PriorityCategories []string `json:"priority_categories"`
	Tone               string   `json:"tone"`
	ExplanationStyle   string   `json:"explanation_style"`
}

const defaultType = "professional"

var typeConfigs = map[string]TypeConfig{
	"student": {
		Description:        "College and university students managing limited budgets",
		FocusAreas:         []string{"budget_basics", "savings_goals", "part_time_income", "education_expenses"},
		DefaultGoals:       []string{"Emergency fund", "Education expenses", "Entertainment budget"},
		SavingsRate:        0.15,
		PriorityCategories: []string{"education", "food", "transportation", "entertainment"},
		Tone:               "casual",
		ExplanationStyle:   "detailed",
	},
	"professional": {
		Description:        "Working professionals with regular income",
		FocusAreas:         []string{"investment_planning", "tax_optimization", "retirement_planning", "wealth_building"},
		DefaultGoals:       []string{"Emergency fund", "Retirement planning", "Investment portfolio"},
		SavingsRate:        0.20,
		PriorityCategories: []string{"housing", "transportation", "healthcare", "investments"},
		Tone:               "formal",
		ExplanationStyle:   "moderate",
	},
	"beginner": {
		Description:        "New to personal finance management",
		FocusAreas:         []string{"financial_literacy", "basic_budgeting", "savings_habits", "debt_management"},
		DefaultGoals:       []string{"Build emergency fund", "Create first budget", "Understand investments"},
		SavingsRate:        0.10,
		PriorityCategories: []string{"necessities", "debt_payment", "emergency_fund", "learning"},
		Tone:               "encouraging",
		ExplanationStyle:   "detailed",
	},
	"intermediate": {
		Description:        "Some experience with financial planning",
		FocusAreas:         []string{"advanced_budgeting", "investment_diversification", "tax_planning", "goal_optimization"},
		DefaultGoals:       []string{"Optimize investment portfolio", "Tax-efficient planning", "Advanced savings strategies"},
		SavingsRate:        0.25,
		PriorityCategories: []string{"investments", "tax_planning", "insurance", "advanced_goals"},
		Tone:               "conversational",
		ExplanationStyle:   "moderate",
	},
}

// Config returns the configuration for userType. Unknown types get the
// professional configuration.
func Config(userType string) TypeConfig {
	if cfg, ok := typeConfigs[strings.ToLower(userType)]; ok {
		return cfg
	}
	return typeConfigs[defaultType]
}

func resolveType(userType string) string {
	userType = strings.ToLower(userType)
	if _, ok := typeConfigs[userType]; ok {
		return userType
	}
	return defaultType
}

// isTamil accepts both the code and the english name.
func isTamil(language string) bool {
	language = strings.ToLower(language)
	return language == "ta" || language == "tamil"
}

var greetings = map[string]map[string]string{
	"en": {
		"student":      "Hi %s! 🎓 Ready to master your finances as a student? Let's make every rupee count!",
		"professional": "Welcome %s! 💼 Let's optimize your financial strategy and build wealth professionally.",
		"beginner":     "Hello %s! 🌟 Don't worry, I'll guide you through personal finance step by step.",
		"intermediate": "Hi %s! 🚀 Ready to take your financial planning to the next level?",
	},
	"ta": {
		"student":      "வணக்கம் %s! 🎓 மாணவராக உங்கள் நிதியை கற்றுக்கொள்ள தயாரா? ஒவ்வொரு ரூபாயையும் பயனுள்ளதாக்குவோம்!",
		"professional": "வரவேற்கிறோம் %s! 💼 உங்கள் நிதி உத்தியை மேம்படுத்தி தொழில்முறையாக செல்வத்தை உருவாக்குவோம்.",
		"beginner":     "வணக்கம் %s! 🌟 கவலைப்பட வேண்டாம், தனிப்பட்ட நிதியை படிப்படியாக கற்றுத்தருவேன்.",
		"intermediate": "வணக்கம் %s! 🚀 உங்கள் நிதி திட்டமிடலை அடுத்த நிலைக்கு கொண்டு செல்ல தயாரா?",
	},
}

// Greeting returns a greeting for the user type in language. Languages other
// than Tamil get english.
func Greeting(userType, language, name string) string {
	lang := "en"
	if isTamil(language) {
		lang = "ta"
	}
	tmpl := greetings[lang][resolveType(userType)]
	if name = strings.TrimSpace(name); name == "" {
		return strings.Replace(tmpl, " %s", "", 1)
	}
	return strings.Replace(tmpl, "%s", name, 1)
}

var topics = map[string]map[string][]string{
	"en": {
		"student": {
			"How to budget on a student income?",
			"Best savings strategies for students",
			"Managing education loan debt",
			"Part-time income tax implications",
		},
		"professional": {
			"Investment portfolio optimization",
			"Tax-saving investment options",
			"Retirement planning strategies",
			"Real estate investment advice",
		},
		"beginner": {
			"How to create my first budget?",
			"What is an emergency fund?",
			"Basic investment concepts",
			"How to track expenses?",
		},
		"intermediate": {
			"Advanced budgeting techniques",
			"Diversification strategies",
			"Tax optimization methods",
			"Goal-based financial planning",
		},
	},
	"ta": {
		"student": {
			"மாணவர் வருமானத்தில் எப்படி பட்ஜெட் செய்வது?",
			"மாணவர்களுக்கான சிறந்த சேமிப்பு வழிகள்",
			"கல்விக் கடன் நிர்வாகம்",
			"பகுதி நேர வருமான வரி விளைவுகள்",
		},
		"professional": {
			"முதலீட்டு போர்ட்ஃபோலியோ மேம்பாடு",
			"வரி சேமிப்பு முதலீட்டு விருப்பங்கள்",
			"ஓய்வூதிய திட்டமிடல் உத்திகள்",
			"ரியல் எஸ்டேட் முதலீட்டு ஆலோசனை",
		},
		"beginner": {
			"எனது முதல் பட்ஜெட்டை எப்படி உருவாக்குவது?",
			"அவசர நிதி என்றால் என்ன?",
			"அடிப்படை முதலீட்டு கருத்துகள்",
			"செலவுகளை எப்படி கண்காணிப்பது?",
		},
		"intermediate": {
			"மேம்பட்ட பட்ஜெட்டிங் நுட்பங்கள்",
			"பல்வகைப்படுத்தல் உத்திகள்",
			"வரி மேம்பாட்டு முறைகள்",
			"இலக்கு அடிப்படையிலான நிதி திட்டமிடல்",
		},
	},
}

// SuggestedTopics lists conversation starters for the user type.
func SuggestedTopics(userType, language string) []string {
	lang := "en"
	if isTamil(language) {
		lang = "ta"
	}
	src := topics[lang][resolveType(userType)]
	return append([]string(nil), src...)
}

// RecommendedSavings is the monthly amount the user type should save.
func RecommendedSavings(userType string, monthlyIncome float64) float64 {
	if monthlyIncome <= 0 {
		return 0
	}
	return round2(monthlyIncome * Config(userType).SavingsRate)
}

// Snapshot is the financial state milestones are measured against.
type Snapshot struct {
	UserType        string  `json:"user_type"`
	MonthlyIncome   float64 `json:"monthly_income"`
	MonthlyExpenses float64 `json:"monthly_expenses"`
	EmergencyFund   float64 `json:"emergency_fund"`
	Savings         float64 `json:"current_savings"`
	Investments     float64 `json:"current_investments"`
}

// Milestone tracks progress toward one target.
type Milestone struct {
	Name       string  `json:"name"`
	Current    float64 `json:"current"`
	Target     float64 `json:"target"`
	Completion float64 `json:"completion_percent"`
	Achieved   bool    `json:"achieved"`
}

const (
	emergencyFundMonths = 6
	sipShare            = 0.15
)

// ProgressMilestones measures the emergency fund against six months of
// expenses, savings against a year at the recommended rate, and investments
// against a year of SIPs at 15% of income.
func ProgressMilestones(s Snapshot) []Milestone {
	monthlyNeed := s.MonthlyExpenses
	if monthlyNeed <= 0 {
		monthlyNeed = s.MonthlyIncome
	}
	return []Milestone{
		milestone("emergency_fund", s.EmergencyFund, monthlyNeed*emergencyFundMonths),
		milestone("savings", s.Savings, s.MonthlyIncome*12*Config(s.UserType).SavingsRate),
		milestone("investment", s.Investments, s.MonthlyIncome*12*sipShare),
	}
}

func milestone(name string, current, target float64) Milestone {
	m := Milestone{Name: name, Current: round2(current), Target: round2(target)}
	switch {
	case target <= 0:
		m.Completion = 0
	default:
		m.Completion = round2(math.Min(100, current/target*100))
	}
	m.Achieved = target > 0 && current >= target
	return m
}

// Onboarding stages.
const (
	StageNotOnboarded    = "not_onboarded"
	StageOnboardedNoData = "onboarded_no_data"
	StageDataUploaded    = "data_uploaded"
)

var nextSteps = map[string]map[string][]string{
	"en": {
		StageNotOnboarded: {
			"Complete your profile setup",
			"Set your financial goals",
			"Upload your transaction data",
		},
		StageOnboardedNoData: {
			"Upload your transaction data for analysis",
			"Explore budget analysis features",
			"Set up smart alerts",
		},
		StageDataUploaded: {
			"Review your budget analysis",
			"Check smart financial alerts",
			"Export your profile backup",
		},
	},
	"ta": {
		StageNotOnboarded: {
			"உங்கள் சுயவிவர அமைப்பை முடிக்கவும்",
			"உங்கள் நிதி இலக்குகளை அமைக்கவும்",
			"உங்கள் பரிவர்த்தனை தரவைப் பதிவேற்றவும்",
		},
		StageOnboardedNoData: {
			"பகுப்பாய்விற்காக உங்கள் பரிவர்த்தனை தரவைப் பதிவேற்றவும்",
			"பட்ஜெட் பகுப்பாய்வு அம்சங்களை ஆராயுங்கள்",
			"ஸ்மார்ட் எச்சரிக்கைகளை அமைக்கவும்",
		},
		StageDataUploaded: {
			"உங்கள் பட்ஜெட் பகுப்பாய்வை மதிப்பாய்வு செய்யுங்கள்",
			"ஸ்மார்ட் நிதி எச்சரிக்கைகளைச் சரிபார்க்கவும்",
			"உங்கள் சுயவிவர காப்புப்பிரதியை ஏற்றுமதி செய்யுங்கள்",
		},
	},
}

// NextSteps suggests what to do next at the given onboarding stage. Students
// and beginners get a learning step first. An unknown stage yields nil.
func NextSteps(stage, userType, language string) []string {
	lang := "en"
	if isTamil(language) {
		lang = "ta"
	}
	steps, ok := nextSteps[lang][stage]
	if !ok {
		return nil
	}
	out := append([]string(nil), steps...)
	if lang == "en" && stage == StageDataUploaded {
		switch resolveType(userType) {
		case "student", "beginner":
			out = append([]string{"Read the 50/30/20 budgeting guide"}, out...)
		case "intermediate":
			out = append(out, "Compare the old and new tax regimes")
		}
	}
	return out
}

// StageFor derives the onboarding stage from progress flags.
func StageFor(onboarded, dataUploaded bool) string {
	switch {
	case !onboarded:
		return StageNotOnboarded
	case !dataUploaded:
		return StageOnboardedNoData
	default:
		return StageDataUploaded
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
