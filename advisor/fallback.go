package advisor

import (
	"context"
	"regexp"

	"github.com/user/jarvisfi-go/i18n"
)

var cannedResponses = map[string]string{
	IntentBudgeting: `Here are some budgeting tips:
1. Follow the 50/30/20 rule: 50% needs, 30% wants, 20% savings
2. Track your expenses for at least a month
3. Use budgeting apps to monitor spending
4. Review and adjust your budget monthly
5. Build an emergency fund of 6 months expenses`,
	IntentInvestment: `Investment guidance:
1. Start with SIPs in diversified equity funds
2. Consider ELSS for tax benefits
3. Diversify across asset classes
4. Invest for long-term (5+ years)
5. Review your portfolio quarterly`,
	IntentSavings: `Savings strategies:
1. Pay yourself first - save before spending
2. Use high-yield savings accounts
3. Automate your savings
4. Set specific savings goals
5. Consider PPF for long-term savings`,
	IntentGeneral: `I'm here to help with your financial questions! I can assist with:
- Budgeting and expense management
- Investment planning and SIPs
- Savings strategies
- Tax planning
- Insurance guidance
- Debt management`,
}

// CannedResponse is the built-in answer for intent. Intents without one get
// the general overview.
func CannedResponse(intent string) string {
	if r, ok := cannedResponses[intent]; ok {
		return r
	}
	return cannedResponses[IntentGeneral]
}

var greetings = map[string]map[string]string{
	i18n.English: {
		"student":        "I'm here to help with your financial questions! As a student, I can assist with budgeting, savings, and education loans.",
		"professional":   "I'm your AI financial advisor. I can help with investments, tax planning, and wealth management strategies.",
		"farmer":         "I'm here to support your agricultural finance needs. I can help with crop loans, MSP information, and subsidies.",
		"senior_citizen": "I'm here to help with your financial planning. I can assist with retirement planning and safe investment options.",
	},
	i18n.Tamil: {
		"student":        "நான் உங்கள் நிதி கேள்விகளுக்கு உதவ இங்கே இருக்கிறேன்! ஒரு மாணவராக, பட்ஜெட், சேமிப்பு மற்றும் கல்விக் கடன்களில் உதவ முடியும்.",
		"professional":   "நான் உங்கள் AI நிதி ஆலோசகர். முதலீடுகள், வரி திட்டமிடல் மற்றும் செல்வ மேலாண்மை உத்திகளில் உதவ முடியும்.",
		"farmer":         "உங்கள் விவசாய நிதி தேவைகளுக்கு ஆதரவளிக்க நான் இங்கே இருக்கிறேன். பயிர் கடன்கள், MSP தகவல் மற்றும் மானியங்களில் உதவ முடியும்.",
		"senior_citizen": "உங்கள் நிதி திட்டமிடலுக்கு உதவ நான் இங்கே இருக்கிறேன். ஓய்வூதிய திட்டமிடல் மற்றும் பாதுகாப்பான முதலீட்டு விருப்பங்களில் உதவ முடியும்.",
	},
}

// Greeting introduces the assistant to a user type. Unknown languages get
// English and unknown user types the professional greeting.
func Greeting(userType, lang string) string {
	table, ok := greetings[lang]
	if !ok {
		table = greetings[i18n.English]
	}
	if g, ok := table[userType]; ok {
		return g
	}
	return table["professional"]
}

// RuleBasedName is the generator name of the built-in answers.
const RuleBasedName = "rule_based"

var promptIntent = regexp.MustCompile(`Query Intent: (\w+)`)

// RuleBasedGenerator answers from the canned responses. It never fails.
type RuleBasedGenerator struct{}

func (RuleBasedGenerator) Name() string { return RuleBasedName }

// Generate reads the intent line written by BuildPrompt, classifying the
// prompt itself when the line is missing.
func (RuleBasedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	var intent string
	if m := promptIntent.FindStringSubmatch(prompt); m != nil {
		intent = m[1]
	} else {
		intent = ClassifyIntent(prompt)
	}
	return CannedResponse(intent), nil
}
