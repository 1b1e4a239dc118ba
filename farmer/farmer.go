// Package farmer provides the agricultural finance tools: minimum support
// prices, crop loans, crop insurance, government schemes, weather alerts and
// market prices.
package farmer

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/finance"
	"github.com/user/jarvisfi-go/security"
)

// Crop seasons.
const (
	Kharif     = "kharif"
	Rabi       = "rabi"
	Annual     = "annual"
	Commercial = "commercial"
)

// MSP is the minimum support price of a crop.
type MSP struct {
	Crop   string  `json:"crop"`
	Price  float64 `json:"price"`
	Unit   string  `json:"unit"`
	Season string  `json:"season"`
}

var mspTable = map[string]MSP{
	"rice":      {"rice", 2183, "quintal", Kharif},
	"wheat":     {"wheat", 2275, "quintal", Rabi},
	"cotton":    {"cotton", 6620, "quintal", Kharif},
	"sugarcane": {"sugarcane", 315, "quintal", Annual},
	"maize":     {"maize", 2090, "quintal", Kharif},
	"bajra":     {"bajra", 2500, "quintal", Kharif},
	"jowar":     {"jowar", 3180, "quintal", Kharif},
	"tur":       {"tur", 7000, "quintal", Kharif},
}

// MSPFor looks a crop up case-insensitively.
func MSPFor(crop string) (*MSP, error) {
	m, ok := mspTable[strings.ToLower(strings.TrimSpace(crop))]
	if !ok {
		return nil, apperror.NewNotFoundError("no minimum support price for crop "+crop, nil)
	}
	return &m, nil
}

// AllMSP lists every crop, sorted by name.
func AllMSP() []MSP {
	out := make([]MSP, 0, len(mspTable))
	for _, m := range mspTable {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Crop < out[j].Crop })
	return out
}

// CropIncome is the revenue from selling a harvest at MSP.
type CropIncome struct {
	Crop     string  `json:"crop"`
	Quintals float64 `json:"quintals"`
	MSP      float64 `json:"msp"`
	Income   float64 `json:"estimated_income"`
}

// EstimateCropIncome values quintals of crop at its MSP.
func EstimateCropIncome(crop string, quintals float64) (*CropIncome, error) {
	if !security.Finite(quintals) {
		return nil, apperror.NewValidationError("quantity must be a finite number", nil).
			WithDetails(map[string]string{"quintals": "finite"})
	}
	if quintals < 0 {
		return nil, apperror.NewValidationError("quantity cannot be negative", nil).
			WithDetails(map[string]string{"quintals": "gte=0"})
	}
	m, err := MSPFor(crop)
	if err != nil {
		return nil, err
	}
	return &CropIncome{
		Crop:     m.Crop,
		Quintals: quintals,
		MSP:      m.Price,
		Income:   math.Round(m.Price*quintals*100) / 100,
	}, nil
}

// Crop loan terms.
const (
	concessionalLimit    = 300000
	concessionalRate     = 7.0
	standardCropLoanRate = 9.0
	promptRepaymentBonus = 2.0
	cropCycleMonths      = 12
)

// LoanLimits are indicative crop loan ceilings per farmer category.
var LoanLimits = map[string]float64{
	"marginal_farmer": 100000,
	"small_farmer":    300000,
	"large_farmer":    1000000,
}

var loanDocuments = []string{
	"Land records",
	"Aadhaar card",
	"Bank account details",
	"Crop cultivation certificate",
}

// CropLoanRate is the annual rate for a crop loan of amount. Kisan Credit
// Card loans always get the concessional rate.
func CropLoanRate(amount float64, kcc bool) float64 {
	if kcc || amount <= concessionalLimit {
		return concessionalRate
	}
	return standardCropLoanRate
}

// CropLoanQuote is the cost of a crop loan.
type CropLoanQuote struct {
	Amount              float64  `json:"amount"`
	Months              int      `json:"months"`
	KCC                 bool     `json:"kcc"`
	AnnualRate          float64  `json:"annual_rate"`
	PromptRepaymentRate float64  `json:"prompt_repayment_rate"`
	EMI                 float64  `json:"emi"`
	TotalPayment        float64  `json:"total_payment"`
	TotalInterest       float64  `json:"total_interest"`
	Category            string   `json:"category,omitempty"`
	WithinLimit         *bool    `json:"within_limit,omitempty"`
	DocumentsRequired   []string `json:"documents_required"`
}

// QuoteCropLoan prices a crop loan over months (0 means one crop cycle).
// category, when set, is checked against LoanLimits.
func QuoteCropLoan(amount float64, months int, kcc bool, category string) (*CropLoanQuote, error) {
	if months == 0 {
		months = cropCycleMonths
	}
	rate := CropLoanRate(amount, kcc)
	emi, err := finance.EMIMonths(amount, rate, months)
	if err != nil {
		return nil, err
	}
	total := emi * float64(months)
	q := &CropLoanQuote{
		Amount:              amount,
		Months:              months,
		KCC:                 kcc,
		AnnualRate:          rate,
		PromptRepaymentRate: rate - promptRepaymentBonus,
		EMI:                 round2(emi),
		TotalPayment:        round2(total),
		TotalInterest:       round2(total - amount),
		DocumentsRequired:   append([]string(nil), loanDocuments...),
	}
	if category != "" {
		limit, ok := LoanLimits[category]
		if !ok {
			return nil, apperror.NewValidationError("unknown farmer category", nil).
				WithDetails(map[string]string{"category": "oneof=marginal_farmer small_farmer large_farmer"})
		}
		within := amount <= limit
		q.Category, q.WithinLimit = category, &within
	}
	return q, nil
}

var premiumRates = map[string]float64{
	Kharif:     2.0,
	Rabi:       1.5,
	Commercial: 5.0,
}

// DefaultActuarialRate is the full premium rate assumed when none is given.
const DefaultActuarialRate = 10.0

// PremiumQuote splits a PMFBY premium between the farmer and the government.
type PremiumQuote struct {
	Season          string  `json:"season"`
	SumInsured      float64 `json:"sum_insured"`
	FarmerRate      float64 `json:"farmer_rate"`
	FarmerPremium   float64 `json:"farmer_premium"`
	ActuarialRate   float64 `json:"actuarial_rate"`
	GovernmentShare float64 `json:"government_share"`
	Scheme          string  `json:"scheme"`
}

func normalizeSeason(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, "commercial"), strings.Contains(s, "horticult"), s == Annual:
		return Commercial
	default:
		return s
	}
}

// PMFBYPremium is the Pradhan Mantri Fasal Bima Yojana premium for a season.
// actuarialRate is the full premium percent; 0 means DefaultActuarialRate.
// The government pays the difference to the farmer's share.
func PMFBYPremium(season string, sumInsured, actuarialRate float64) (*PremiumQuote, error) {
	season = normalizeSeason(season)
	rate, ok := premiumRates[season]
	if !ok {
		return nil, apperror.NewValidationError("season must be kharif, rabi or commercial", nil).
			WithDetails(map[string]string{"season": "oneof=kharif rabi commercial"})
	}
	if sumInsured <= 0 {
		return nil, apperror.NewValidationError("sum insured must be positive", nil).
			WithDetails(map[string]string{"sum_insured": "gt=0"})
	}
	if actuarialRate == 0 {
		actuarialRate = DefaultActuarialRate
	}
	farmer := sumInsured * rate / 100
	full := sumInsured * actuarialRate / 100
	return &PremiumQuote{
		Season:          season,
		SumInsured:      sumInsured,
		FarmerRate:      rate,
		FarmerPremium:   round2(farmer),
		ActuarialRate:   actuarialRate,
		GovernmentShare: round2(math.Max(full-farmer, 0)),
		Scheme:          "Pradhan Mantri Fasal Bima Yojana",
	}, nil
}

// Scheme is a government programme for farmers.
type Scheme struct {
	Name        string `json:"name"`
	Benefit     string `json:"benefit"`
	Eligibility string `json:"eligibility"`
	Application string `json:"application"`
}

// Schemes lists the government schemes and subsidies.
func Schemes() []Scheme {
	return []Scheme{
		{"PM-KISAN", "₹6,000 per year", "Small and marginal farmers", "Online at pmkisan.gov.in"},
		{"Fertilizer Subsidy", "Subsidy on fertilizer purchases", "All farmers", "At the point of sale"},
		{"PMFBY", "Crop insurance at 1.5-5% farmer premium", "Insured farmers", "Through banks and insurers"},
		{"Kisan Credit Card", "Easy crop loans at subsidized rates", "All farmers", "Through banks"},
		{"Soil Health Card", "Free soil testing and recommendations", "All farmers", "Through agriculture department"},
	}
}

// MarketPrice is an indicative mandi price.
type MarketPrice struct {
	Crop      string  `json:"crop"`
	MSP       float64 `json:"msp"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
	Trend     string  `json:"trend"`
	Source    string  `json:"source"`
}

// SourceDemo marks data generated without a live feed.
const SourceDemo = "demo"

func demoPrice(m MSP) MarketPrice {
	h := fnv.New32a()
	_, _ = h.Write([]byte(m.Crop))
	pct := float64(h.Sum32()%51)/10 - 2
	trend := "flat"
	switch {
	case pct > 0:
		trend = "up"
	case pct < 0:
		trend = "down"
	}
	return MarketPrice{
		Crop:      m.Crop,
		MSP:       m.Price,
		Price:     math.Round(m.Price * (1 + pct/100)),
		ChangePct: pct,
		Trend:     trend,
		Source:    SourceDemo,
	}
}

// MarketPrices quotes crop, or every crop when crop is empty. Prices sit
// within a stable spread of -2% to +3% around MSP.
func MarketPrices(crop string) ([]MarketPrice, error) {
	if strings.TrimSpace(crop) == "" {
		all := AllMSP()
		out := make([]MarketPrice, 0, len(all))
		for _, m := range all {
			out = append(out, demoPrice(m))
		}
		return out, nil
	}
	m, err := MSPFor(crop)
	if err != nil {
		return nil, err
	}
	return []MarketPrice{demoPrice(*m)}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
