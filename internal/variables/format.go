package variables

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// printer formats numbers with the pt-BR convention: "." groups
// thousands and "," is the decimal mark.
var printer = message.NewPrinter(language.BrazilianPortuguese)

// FormatCurrency renders an amount as Brazilian reais, e.g. "R$ 1.234,56".
func FormatCurrency(v float64) string {
	return "R$ " + printer.Sprintf("%v", number.Decimal(v, number.Scale(2)))
}

// FormatPercent renders a percentage with up to two decimals, e.g. "12,5%".
func FormatPercent(v float64) string {
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2))) + "%"
}

// FormatQuantity renders a quantity without trailing zeros.
func FormatQuantity(v float64) string {
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

// dateLayouts are the input layouts accepted for proposal dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders an ISO-like date string as dd/mm/yyyy. Strings that
// do not parse are returned unchanged.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return s
}
