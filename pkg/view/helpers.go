package view

import (
	"github.com/shopspring/decimal"
)

// Money renders an amount for humans, e.g. 50000 TZS -> "TSh 50,000.00".
func Money(amount decimal.Decimal, currency string) string {
	return currencySymbol(currency) + groupThousands(amount.StringFixed(2))
}

func currencySymbol(code string) string {
	switch code {
	case "TZS":
		return "TSh "
	case "KES":
		return "KSh "
	case "UGX":
		return "USh "
	case "USD":
		return "$"
	case "EUR":
		return "€"
	default:
		return code + " "
	}
}

func groupThousands(s string) string {
	sign := ""
	if s != "" && s[0] == '-' {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			intPart, frac = s[:i], s[i:]
			break
		}
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}
	out := make([]byte, 0, len(intPart)+len(intPart)/3)
	lead := len(intPart) % 3
	if lead > 0 {
		out = append(out, intPart[:lead]...)
	}
	for i := lead; i < len(intPart); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i:i+3]...)
	}
	return sign + string(out) + frac
}
