package finance

import (
	"math"
	"strings"

	"github.com/user/jarvisfi-go/security"
)

// Tax regimes.
const (
	OldRegime = "old"
	NewRegime = "new"
)

const cessRate = 0.04

type slab struct {
	min, max float64
	rate     float64
}

// FY2024-25 slab tables.
var slabs = map[string][]slab{
	OldRegime: {
		{0, 250000, 0},
		{250000, 500000, 0.05},
		{500000, 1000000, 0.20},
		{1000000, math.Inf(1), 0.30},
	},
	NewRegime: {
		{0, 300000, 0},
		{300000, 600000, 0.05},
		{600000, 900000, 0.10},
		{900000, 1200000, 0.15},
		{1200000, 1500000, 0.20},
		{1500000, math.Inf(1), 0.30},
	},
}

// Deductions reduce taxable income under the old regime only.
type Deductions struct {
	Section80C float64 `json:"section_80c" validate:"gte=0"`
	Section80D float64 `json:"section_80d" validate:"gte=0"`
	HRA        float64 `json:"hra" validate:"gte=0"`
	Other      float64 `json:"other" validate:"gte=0"`
}

func (d Deductions) total() float64 {
	return math.Min(d.Section80C, TaxSavingLimit80C) +
		math.Min(d.Section80D, healthInsuranceLimit80D) +
		d.HRA + d.Other
}

// SlabTax is the tax owed within one slab.
type SlabTax struct {
	From    float64  `json:"from"`
	To      *float64 `json:"to,omitempty"`
	Rate    float64  `json:"rate"`
	Taxable float64  `json:"taxable_amount"`
	Tax     float64  `json:"tax"`
}

// TaxResult is the liability under one regime.
type TaxResult struct {
	Regime        string    `json:"regime"`
	GrossIncome   float64   `json:"gross_income"`
	Deductions    float64   `json:"deductions"`
	TaxableIncome float64   `json:"taxable_income"`
	SlabTax       float64   `json:"slab_tax"`
	Cess          float64   `json:"cess"`
	TotalTax      float64   `json:"total_tax"`
	EffectiveRate float64   `json:"effective_tax_rate"`
	Breakdown     []SlabTax `json:"breakdown"`
}

// NormalizeRegime maps "old_regime", "OLD" and similar to OldRegime or
// NewRegime. Anything unrecognised is the new regime.
func NormalizeRegime(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "old") {
		return OldRegime
	}
	return NewRegime
}

// CalculateTax applies the regime's slabs and 4% cess to annualIncome.
// Deductions are ignored under the new regime.
func CalculateTax(annualIncome float64, regime string, d Deductions) (*TaxResult, error) {
	switch {
	case !security.Finite(annualIncome):
		return nil, nonFinite("annual_income")
	case !security.Finite(d.total()):
		return nil, nonFinite("deductions")
	case annualIncome < 0:
		return nil, invalid("annual_income", "gte=0", "income cannot be negative")
	}
	regime = NormalizeRegime(regime)

	res := &TaxResult{Regime: regime, GrossIncome: annualIncome, Breakdown: []SlabTax{}}
	taxable := annualIncome
	if regime == OldRegime {
		res.Deductions = round2(math.Min(d.total(), annualIncome))
		taxable -= res.Deductions
	}
	res.TaxableIncome = round2(taxable)

	remaining := taxable
	var total float64
	for _, s := range slabs[regime] {
		if remaining <= 0 {
			break
		}
		in := math.Min(remaining, s.max-s.min)
		tax := in * s.rate
		if tax > 0 {
			row := SlabTax{From: s.min, Rate: s.rate * 100, Taxable: round2(in), Tax: round2(tax)}
			if !math.IsInf(s.max, 1) {
				to := s.max
				row.To = &to
			}
			res.Breakdown = append(res.Breakdown, row)
		}
		total += tax
		remaining -= in
	}

	cess := total * cessRate
	res.SlabTax = round2(total)
	res.Cess = round2(cess)
	res.TotalTax = round2(total + cess)
	if annualIncome > 0 {
		res.EffectiveRate = round2((total + cess) / annualIncome * 100)
	}
	return res, nil
}

// RegimeComparison is the result of taxing the same income both ways.
type RegimeComparison struct {
	AnnualIncome      float64           `json:"annual_income"`
	Old               *TaxResult        `json:"old_regime"`
	New               *TaxResult        `json:"new_regime"`
	RecommendedRegime string            `json:"recommended_regime"`
	Savings           float64           `json:"savings_potential"`
	Recommendations   []TaxSavingOption `json:"tax_saving_recommendations"`
}

// CompareRegimes recommends the regime with the lower total, preferring the
// new regime on a tie.
func CompareRegimes(annualIncome float64, d Deductions) (*RegimeComparison, error) {
	oldTax, err := CalculateTax(annualIncome, OldRegime, d)
	if err != nil {
		return nil, err
	}
	newTax, err := CalculateTax(annualIncome, NewRegime, d)
	if err != nil {
		return nil, err
	}
	rec := NewRegime
	if oldTax.TotalTax < newTax.TotalTax {
		rec = OldRegime
	}
	return &RegimeComparison{
		AnnualIncome:      annualIncome,
		Old:               oldTax,
		New:               newTax,
		RecommendedRegime: rec,
		Savings:           round2(math.Abs(oldTax.TotalTax - newTax.TotalTax)),
		Recommendations:   TaxSavingRecommendations(annualIncome),
	}, nil
}

// TaxSavingOption is one deduction-eligible instrument.
type TaxSavingOption struct {
	Instrument        string  `json:"instrument"`
	MaxDeduction      float64 `json:"max_deduction"`
	TaxSaved          float64 `json:"tax_saved"`
	AdditionalBenefit string  `json:"additional_benefit"`
}

// TaxSavingRecommendations lists ELSS and PPF above 2.5L and NPS above 5L.
func TaxSavingRecommendations(annualIncome float64) []TaxSavingOption {
	out := []TaxSavingOption{}
	if annualIncome > 250000 {
		saved := math.Min(annualIncome*0.3, 45000)
		out = append(out,
			TaxSavingOption{"ELSS Mutual Funds", TaxSavingLimit80C, saved, "Potential for 12-15% returns"},
			TaxSavingOption{"PPF", TaxSavingLimit80C, saved, "Tax-free returns, 15-year lock-in"},
		)
	}
	if annualIncome > 500000 {
		out = append(out, TaxSavingOption{
			"NPS", 50000, math.Min(annualIncome*0.3, 15000), "Additional deduction under 80CCD(1B)",
		})
	}
	return out
}
