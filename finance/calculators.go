// Package finance holds the financial calculators and analyses. Everything
// except CreditScoreService is pure and deterministic.
package finance

import (
	"errors"
	"math"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/security"
)

// Planning constants.
const (
	EmergencyFundMonths         = 6
	RetirementCorpusMultiplier  = 25
	SIPRecommendedShare         = 0.15
	TaxSavingLimit80C           = 150000
	HomeLoanEMIRatio            = 0.40
	CreditUtilizationIdeal      = 0.30
	healthInsuranceLimit80D     = 25000
	maxAmortizationScheduleRows = 600
)

// Affordability bands for EMI relative to monthly income.
const (
	Affordable     = "affordable"
	Manageable     = "manageable"
	NotRecommended = "not recommended"
	Unknown        = "unknown"
)

// ErrPaymentTooLow means a monthly payment never covers the interest.
var ErrPaymentTooLow = apperror.NewValidationError("monthly payment is too low to cover interest", nil)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func invalid(field, rule, msg string) error {
	return apperror.NewValidationError(msg, nil).WithDetails(map[string]string{field: rule})
}

func nonFinite(field string) error {
	return invalid(field, "finite", field+" must be a finite number")
}

// EMI is the equated monthly installment for principal borrowed at
// annualRate percent over years.
func EMI(principal, annualRate float64, years int) (float64, error) {
	if years <= 0 {
		return 0, invalid("years", "gt=0", "years must be positive")
	}
	return EMIMonths(principal, annualRate, years*12)
}

// EMIMonths is EMI for a tenure given in months.
func EMIMonths(principal, annualRate float64, months int) (float64, error) {
	switch {
	case !security.Finite(principal):
		return 0, nonFinite("principal")
	case !security.Finite(annualRate):
		return 0, nonFinite("annual_rate")
	case principal <= 0:
		return 0, invalid("principal", "gt=0", "principal must be positive")
	case months <= 0:
		return 0, invalid("months", "gt=0", "tenure must be positive")
	case annualRate < 0:
		return 0, invalid("annual_rate", "gte=0", "interest rate cannot be negative")
	}
	r := annualRate / 1200
	n := float64(months)
	if r == 0 {
		return principal / n, nil
	}
	f := math.Pow(1+r, n)
	return principal * r * f / (f - 1), nil
}

// AmortizationRow is one month of a repayment schedule.
type AmortizationRow struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// LoanResult is the full analysis of an amortizing loan.
type LoanResult struct {
	Principal     float64           `json:"principal"`
	AnnualRate    float64           `json:"annual_rate"`
	Months        int               `json:"months"`
	EMI           float64           `json:"emi"`
	TotalPayment  float64           `json:"total_payment"`
	TotalInterest float64           `json:"total_interest"`
	EMIToIncome   float64           `json:"emi_to_income_ratio"`
	Affordability string            `json:"affordability"`
	Schedule      []AmortizationRow `json:"schedule"`
}

// LoanAnalysis computes the EMI, totals, affordability against
// monthlyIncome (0 skips it) and the amortization schedule.
func LoanAnalysis(principal, annualRate float64, years int, monthlyIncome float64) (*LoanResult, error) {
	emi, err := EMI(principal, annualRate, years)
	if err != nil {
		return nil, err
	}
	months := years * 12
	total := emi * float64(months)

	res := &LoanResult{
		Principal:     principal,
		AnnualRate:    annualRate,
		Months:        months,
		EMI:           round2(emi),
		TotalPayment:  round2(total),
		TotalInterest: round2(total - principal),
		Affordability: Unknown,
	}
	if monthlyIncome > 0 {
		ratio := emi / monthlyIncome
		res.EMIToIncome = round2(ratio * 100)
		res.Affordability = affordability(ratio)
	}
	res.Schedule = amortize(principal, annualRate/1200, emi, months)
	return res, nil
}

func affordability(ratio float64) string {
	switch {
	case ratio <= HomeLoanEMIRatio:
		return Affordable
	case ratio <= 0.50:
		return Manageable
	default:
		return NotRecommended
	}
}

func amortize(principal, r, emi float64, months int) []AmortizationRow {
	if months > maxAmortizationScheduleRows {
		months = maxAmortizationScheduleRows
	}
	rows := make([]AmortizationRow, 0, months)
	balance := principal
	for m := 1; m <= months; m++ {
		interest := balance * r
		princ := emi - interest
		if m == months || princ > balance {
			princ = balance
		}
		balance -= princ
		rows = append(rows, AmortizationRow{
			Month:     m,
			Payment:   round2(princ + interest),
			Principal: round2(princ),
			Interest:  round2(interest),
			Balance:   round2(math.Max(balance, 0)),
		})
	}
	return rows
}

// YearValue is the state of an investment at the end of a year.
type YearValue struct {
	Year     int     `json:"year"`
	Invested float64 `json:"invested"`
	Value    float64 `json:"value"`
}

// SIPResult is the projection of a systematic investment plan.
type SIPResult struct {
	MonthlyInvestment float64     `json:"monthly_investment"`
	AnnualRate        float64     `json:"annual_rate"`
	Years             int         `json:"years"`
	FutureValue       float64     `json:"future_value"`
	Invested          float64     `json:"invested"`
	Gains             float64     `json:"gains"`
	Yearly            []YearValue `json:"yearly"`
}

func sipValue(monthly, r float64, months int) float64 {
	n := float64(months)
	if r == 0 {
		return monthly * n
	}
	return monthly * ((math.Pow(1+r, n) - 1) / r) * (1 + r)
}

// SIPFutureValue projects monthly contributions at annualRate percent,
// compounded monthly with payments at the start of each month.
func SIPFutureValue(monthly, annualRate float64, years int) (*SIPResult, error) {
	switch {
	case !security.Finite(monthly):
		return nil, nonFinite("monthly_investment")
	case !security.Finite(annualRate):
		return nil, nonFinite("annual_rate")
	case monthly <= 0:
		return nil, invalid("monthly_investment", "gt=0", "monthly investment must be positive")
	case years <= 0:
		return nil, invalid("years", "gt=0", "years must be positive")
	case annualRate < 0:
		return nil, invalid("annual_rate", "gte=0", "expected return cannot be negative")
	}
	r := annualRate / 1200
	fv := sipValue(monthly, r, years*12)
	invested := monthly * float64(years*12)

	yearly := make([]YearValue, 0, years)
	for y := 1; y <= years; y++ {
		yearly = append(yearly, YearValue{
			Year:     y,
			Invested: round2(monthly * float64(y*12)),
			Value:    round2(sipValue(monthly, r, y*12)),
		})
	}
	return &SIPResult{
		MonthlyInvestment: monthly,
		AnnualRate:        annualRate,
		Years:             years,
		FutureValue:       round2(fv),
		Invested:          round2(invested),
		Gains:             round2(fv - invested),
		Yearly:            yearly,
	}, nil
}

// GrowthResult combines a lump sum with monthly additions.
type GrowthResult struct {
	Initial        float64 `json:"initial_investment"`
	Monthly        float64 `json:"monthly_addition"`
	AnnualRate     float64 `json:"annual_rate"`
	Years          int     `json:"years"`
	LumpSumValue   float64 `json:"lump_sum_value"`
	SIPValue       float64 `json:"sip_value"`
	FutureValue    float64 `json:"future_value"`
	Invested       float64 `json:"invested"`
	Gains          float64 `json:"gains"`
	ReturnMultiple float64 `json:"return_multiple"`
}

// InvestmentGrowth compounds initial annually and monthly as a SIP.
func InvestmentGrowth(initial, monthly, annualRate float64, years int) (*GrowthResult, error) {
	switch {
	case !security.Finite(initial):
		return nil, nonFinite("initial_investment")
	case !security.Finite(monthly):
		return nil, nonFinite("monthly_addition")
	case !security.Finite(annualRate):
		return nil, nonFinite("annual_rate")
	case initial < 0:
		return nil, invalid("initial_investment", "gte=0", "initial investment cannot be negative")
	case monthly < 0:
		return nil, invalid("monthly_addition", "gte=0", "monthly addition cannot be negative")
	case initial == 0 && monthly == 0:
		return nil, invalid("initial_investment", "required", "either an initial investment or a monthly addition is required")
	case years <= 0:
		return nil, invalid("years", "gt=0", "years must be positive")
	case annualRate < 0:
		return nil, invalid("annual_rate", "gte=0", "expected return cannot be negative")
	}
	lump := initial * math.Pow(1+annualRate/100, float64(years))
	sip := sipValue(monthly, annualRate/1200, years*12)
	invested := initial + monthly*float64(years*12)
	fv := lump + sip
	return &GrowthResult{
		Initial:        initial,
		Monthly:        monthly,
		AnnualRate:     annualRate,
		Years:          years,
		LumpSumValue:   round2(lump),
		SIPValue:       round2(sip),
		FutureValue:    round2(fv),
		Invested:       round2(invested),
		Gains:          round2(fv - invested),
		ReturnMultiple: round2(fv / invested),
	}, nil
}

// ExtraPayment shows the effect of paying more each month.
type ExtraPayment struct {
	Extra         float64 `json:"extra"`
	Months        int     `json:"months"`
	MonthsSaved   int     `json:"months_saved"`
	InterestSaved float64 `json:"interest_saved"`
}

// DebtPayoffResult is how long a debt takes to clear at a fixed payment.
type DebtPayoffResult struct {
	Debt           float64        `json:"debt"`
	AnnualRate     float64        `json:"annual_rate"`
	MonthlyPayment float64        `json:"monthly_payment"`
	Months         int            `json:"months"`
	Years          float64        `json:"years"`
	TotalPayment   float64        `json:"total_payment"`
	TotalInterest  float64        `json:"total_interest"`
	ExtraPayments  []ExtraPayment `json:"extra_payments"`
}

var extraPaymentSteps = []float64{1000, 2000, 5000}

func payoffMonths(debt, r, payment float64) (float64, error) {
	if r == 0 {
		return debt / payment, nil
	}
	if payment <= debt*r {
		return 0, ErrPaymentTooLow
	}
	return -math.Log(1-debt*r/payment) / math.Log(1+r), nil
}

// DebtPayoff solves for the months needed to clear debt at annualRate
// percent with a fixed monthly payment.
func DebtPayoff(debt, annualRate, monthlyPayment float64) (*DebtPayoffResult, error) {
	switch {
	case !security.Finite(debt):
		return nil, nonFinite("debt")
	case !security.Finite(monthlyPayment):
		return nil, nonFinite("monthly_payment")
	case !security.Finite(annualRate):
		return nil, nonFinite("annual_rate")
	case debt <= 0:
		return nil, invalid("debt", "gt=0", "debt must be positive")
	case monthlyPayment <= 0:
		return nil, invalid("monthly_payment", "gt=0", "monthly payment must be positive")
	case annualRate < 0:
		return nil, invalid("annual_rate", "gte=0", "interest rate cannot be negative")
	}
	r := annualRate / 1200
	months, err := payoffMonths(debt, r, monthlyPayment)
	if err != nil {
		return nil, err
	}
	interest := monthlyPayment*months - debt

	res := &DebtPayoffResult{
		Debt:           debt,
		AnnualRate:     annualRate,
		MonthlyPayment: monthlyPayment,
		Months:         int(math.Ceil(months)),
		Years:          math.Round(months/12*10) / 10,
		TotalPayment:   round2(monthlyPayment * months),
		TotalInterest:  round2(interest),
		ExtraPayments:  make([]ExtraPayment, 0, len(extraPaymentSteps)),
	}
	for _, extra := range extraPaymentSteps {
		p := monthlyPayment + extra
		m, err := payoffMonths(debt, r, p)
		if errors.Is(err, ErrPaymentTooLow) {
			continue
		}
		res.ExtraPayments = append(res.ExtraPayments, ExtraPayment{
			Extra:         extra,
			Months:        int(math.Ceil(m)),
			MonthsSaved:   int(math.Round(months - m)),
			InterestSaved: round2(interest - (p*m - debt)),
		})
	}
	return res, nil
}
