package finance

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/user/jarvisfi-go/currency"
)

const (
	reportTitle          = "Personal Finance Analysis Report"
	reportCategoryRows   = 8
	reportRecommendRows  = 6
	reportDisclaimerText = "This report is generated by JarvisFi from your transactions and profile. " +
		"Please consult a qualified financial advisor before major financial decisions."
)

// ReportRequest is the body of POST /budget/report.
type ReportRequest struct {
	Name string `json:"name" validate:"max=100"`
	BudgetRequest
}

type reportSection struct {
	Title string
	Lines []string
}

// reportRupees renders an amount for the report's Latin-1 fonts, which have no
// rupee sign.
func reportRupees(amount float64, whole bool) string {
	if whole {
		return "Rs. " + currency.FormatIndianWhole(amount)
	}
	return "Rs. " + currency.FormatIndian(amount)
}

func reportSections(name string, profile BudgetProfile, a *BudgetAnalysis) []reportSection {
	title := cases.Title(language.English)
	if name == "" {
		name = "User"
	}
	userType := profile.UserType
	if userType == "" {
		userType = "professional"
	}

	sections := []reportSection{
		{Title: "Client Information", Lines: []string{
			"Name: " + name,
			"Profile Type: " + title.String(userType),
			"Monthly Income: " + reportRupees(profile.MonthlyIncome, true),
		}},
		{Title: "Executive Summary", Lines: []string{
			"Total Income: " + reportRupees(a.Summary.TotalIncome, false),
			"Total Expenses: " + reportRupees(a.Summary.TotalSpent, false),
			"Net Savings: " + reportRupees(a.Summary.NetSavings, false),
			fmt.Sprintf("Savings Rate: %.1f%%", a.Summary.SavingsRate),
			fmt.Sprintf("Financial Health Score: %d/100 (%s)", a.Health.Score, a.Health.Status),
		}},
	}

	cats := make([]CategoryAmount, 0, len(a.Categories.ByCategory))
	for c, amt := range a.Categories.ByCategory {
		cats = append(cats, CategoryAmount{Category: c, Amount: amt})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Amount != cats[j].Amount {
			return cats[i].Amount > cats[j].Amount
		}
		return cats[i].Category < cats[j].Category
	})
	spending := reportSection{Title: "Spending by Category"}
	for i, c := range cats {
		if i == reportCategoryRows {
			break
		}
		var pct float64
		if a.Summary.TotalSpent > 0 {
			pct = c.Amount / a.Summary.TotalSpent * 100
		}
		spending.Lines = append(spending.Lines,
			fmt.Sprintf("%s: %s (%.1f%%)", title.String(c.Category), reportRupees(c.Amount, true), pct))
	}
	if len(spending.Lines) == 0 {
		spending.Lines = []string{"No spending recorded in the last 90 days."}
	}

	direction := a.Trends.Direction
	if direction == "" {
		direction = TrendStable
	}
	trends := reportSection{Title: "Spending Trends", Lines: []string{
		"Trend Direction: " + title.String(direction),
		fmt.Sprintf("Change: %+.1f%%", a.Trends.TrendPercentage),
	}}

	recs := reportSection{Title: "Personalized Recommendations"}
	for i, r := range a.Recommendations {
		if i == reportRecommendRows {
			break
		}
		recs.Lines = append(recs.Lines, fmt.Sprintf("%d. %s", i+1, r))
	}

	sections = append(sections, spending, trends)
	if len(recs.Lines) > 0 {
		sections = append(sections, recs)
	}
	return sections
}

// BudgetReport renders a budget analysis as a PDF document.
func BudgetReport(name string, profile BudgetProfile, a *BudgetAnalysis, now time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator("JarvisFi", true)
	pdf.SetCreationDate(now)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 12, reportTitle, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 8, "Generated on "+now.Format("January 2, 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetTextColor(0, 0, 0)
	for _, s := range reportSections(name, profile, a) {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, s.Title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range s.Lines {
			pdf.MultiCell(0, 6, tr(line), "", "L", false)
		}
		pdf.Ln(4)
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.MultiCell(0, 4, reportDisclaimerText, "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render budget report: %w", err)
	}
	return buf.Bytes(), nil
}
