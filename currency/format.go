package currency

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"AUD": "A$",
	"CAD": "C$",
	"CHF": "CHF",
	"CNY": "¥",
	"SGD": "S$",
	"AED": "د.إ",
	"SAR": "﷼",
}

// Symbol returns the display symbol for code, or code itself.
func Symbol(code string) string {
	code = strings.ToUpper(code)
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

// FormatIndian formats amount with two decimals and lakh/crore grouping,
// e.g. 12345678.9 -> "1,23,45,678.90".
func FormatIndian(amount float64) string {
	return formatIndian(amount, 2)
}

// FormatIndianWhole is FormatIndian rounded to whole rupees.
func FormatIndianWhole(amount float64) string {
	return formatIndian(amount, 0)
}

func formatIndian(amount float64, decimals int) string {
	s := strconv.FormatFloat(math.Abs(amount), 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var groups []string
	if n := len(intPart); n > 3 {
		head := intPart[:n-3]
		if len(head)%2 == 1 {
			groups = append(groups, head[:1])
			head = head[1:]
		}
		for ; head != ""; head = head[2:] {
			groups = append(groups, head[:2])
		}
		groups = append(groups, intPart[n-3:])
	} else {
		groups = []string{intPart}
	}

	out := strings.Join(groups, ",")
	if frac != "" {
		out += "." + frac
	}
	if amount < 0 && strings.Trim(s, "0.") != "" {
		out = "-" + out
	}
	return out
}

// FormatCurrency prefixes the symbol for code. INR uses Indian grouping,
// everything else western grouping.
func FormatCurrency(amount float64, code string) string {
	code = strings.ToUpper(code)
	if code == "INR" {
		if amount < 0 {
			return "-" + Symbol(code) + FormatIndian(-amount)
		}
		return Symbol(code) + FormatIndian(amount)
	}
	western := message.NewPrinter(language.English)
	if amount < 0 {
		return "-" + Symbol(code) + western.Sprintf("%.2f", -amount)
	}
	return Symbol(code) + western.Sprintf("%.2f", amount)
}
